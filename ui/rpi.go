//go:build pi
// +build pi

package ui

import (
	"github.com/callebjorkell/rfid-trigger/rfid"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"time"
)

const triggerPin = "GPIO16"

func init() {
	if _, err := host.Init(); err != nil {
		logrus.Fatalln("Unable to initialize periph:", err)
	}
}

// InitTrigger watches the trigger button and reports presses and releases.
func InitTrigger() <-chan rfid.TriggerEvent {
	logrus.Infoln("Initializing trigger button")
	pin := gpioreg.ByName(triggerPin)
	if pin == nil {
		logrus.Fatalf("No such pin %v", triggerPin)
	}

	c := make(chan rfid.TriggerEvent, 10)
	go handleTrigger(pin, c)
	return c
}

func handleTrigger(b gpio.PinIO, c chan<- rfid.TriggerEvent) {
	logrus.Debugln("Handling trigger ", b.Name())
	if err := b.In(gpio.PullUp, gpio.BothEdges); err != nil {
		logrus.Fatal(err)
	}

	last := b.Read()
	for {
		if !b.WaitForEdge(time.Second) {
			continue
		}

		// debounce
		l := b.Read()
		if l == last {
			continue
		}

		time.Sleep(50 * time.Millisecond)
		if l == b.Read() {
			last = l
			c <- rfid.TriggerEvent{Pressed: l == gpio.Low}
		}
	}
}

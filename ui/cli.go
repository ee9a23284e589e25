//go:build !pi
// +build !pi

package ui

import (
	"bufio"
	"github.com/callebjorkell/rfid-trigger/rfid"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"time"
)

// how long a key press holds the trigger down
const holdTime = 500 * time.Millisecond

// InitTrigger turns every Enter on stdin into a pull of the handheld trigger.
func InitTrigger() <-chan rfid.TriggerEvent {
	logrus.Infoln("Press Enter to pull the trigger")
	c := make(chan rfid.TriggerEvent, 2)
	go readTrigger(os.Stdin, holdTime, c)
	return c
}

func readTrigger(r io.Reader, hold time.Duration, c chan<- rfid.TriggerEvent) {
	defer close(c)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logrus.Debugln("Trigger pressed")
		c <- rfid.TriggerEvent{Pressed: true}
		<-time.After(hold)
		logrus.Debugln("Trigger released")
		c <- rfid.TriggerEvent{Pressed: false}
	}
	if err := scanner.Err(); err != nil {
		logrus.Warn("Trigger input stopped: ", err)
	}
}

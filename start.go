package main

import (
	"github.com/callebjorkell/rfid-trigger/rfid"
	"github.com/callebjorkell/rfid-trigger/ui"
	log "github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"syscall"
)

func startReader(session *rfid.Session) {
	display := ui.NewConsole(os.Stdout)
	if !connect(session, display) {
		os.Exit(1)
	}
	defer session.Disconnect()

	if err := session.RegisterConsumer(display.ShowTag); err != nil {
		log.Error(err)
		return
	}
	log.Info("Waiting for the trigger...")

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
	log.Info("Shutting down")
}

// connect reports whether the reader is usable, and tells the operator once if it is not.
func connect(session *rfid.Session, display *ui.Console) bool {
	connected, err := session.IsConnected()
	if err != nil {
		log.Error(err)
	}
	if !connected {
		display.Unavailable()
	}
	return connected
}

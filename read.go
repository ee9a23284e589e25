package main

import (
	"errors"
	"fmt"
	"github.com/callebjorkell/rfid-trigger/rfid"
	"github.com/callebjorkell/rfid-trigger/ui"
	log "github.com/sirupsen/logrus"
	"os"
	"time"
)

var errNoTag = errors.New("no tag read")

func readSingleTag(session *rfid.Session) {
	if !connect(session, ui.NewConsole(os.Stderr)) {
		os.Exit(1)
	}

	id, err := waitForTag(session, *readWait)
	session.Disconnect()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(id)
}

func waitForTag(session *rfid.Session, wait time.Duration) (string, error) {
	ids := make(chan string, 1)
	err := session.RegisterConsumer(func(id string) {
		select {
		case ids <- id:
		default:
		}
	})
	if err != nil {
		return "", err
	}

	log.Infof("Pull the trigger within %v", wait)
	select {
	case id := <-ids:
		return id, nil
	case <-time.After(wait):
		return "", errNoTag
	}
}

package main

import (
	"github.com/callebjorkell/rfid-trigger/rfid"
	"github.com/callebjorkell/rfid-trigger/ui"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
	"os"
	"strconv"
)

var (
	app         = kingpin.New("rfid-trigger", "Reads RFID tags with the handheld trigger of the scanner and shows the ID of the latest tag.")
	debug       = app.Flag("debug", "Enable debug logging.").Bool()
	host        = app.Flag("host", "Host of the onboard RFID reader.").Default(rfid.DefaultHost).String()
	port        = app.Flag("port", "Port of the onboard RFID reader.").Default(strconv.Itoa(rfid.DefaultPort)).Int()
	timeout     = app.Flag("timeout", "Timeout when connecting to the reader.").Default(rfid.DefaultTimeout.String()).Duration()
	stopTimeout = app.Flag("stop-timeout", "Stop scanning after this long even if the trigger is still held. 0 waits for the release.").Default("0s").Duration()
	tags        = app.Flag("tag", "Tag ID in range of the antenna. Can be given multiple times.").Default("E2003412012F0000000000A1", "E2003412012F0000000000A2").Strings()
	failEvery   = app.Flag("fail-every", "Make every nth read of the antenna fail. 0 never fails.").Default("0").Int()

	start = app.Command("start", "Connect to the reader and show every tag read with the trigger.")

	read     = app.Command("read", "Read a single tag, print its ID and exit.")
	readWait = read.Flag("wait", "How long to wait for a trigger pull.").Default("30s").Duration()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	session := newSession()

	switch cmd {
	case start.FullCommand():
		startReader(session)
	case read.FullCommand():
		readSingleTag(session)
	default:
		kingpin.FatalUsage("Unrecognized command")
	}
}

func newSession() *rfid.Session {
	endpoint := rfid.Endpoint{Host: *host, Port: *port, Timeout: *timeout}
	policy := rfid.HandheldTriggerPolicy(*stopTimeout)
	reader := rfid.NewSimulator(ui.InitTrigger(), *tags, rfid.WithFailEvery(*failEvery))
	return rfid.NewSession(reader, endpoint, policy)
}

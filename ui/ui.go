package ui

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"io"
	"sync"
)

const unavailableNotice = "This device will not scan an RFID code."

// Console shows the most recently read tag ID, the way the scanner screen keeps a single text field.
type Console struct {
	out io.Writer

	mu   sync.Mutex
	last string
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// ShowTag replaces the displayed tag. It is safe to call from any goroutine.
func (c *Console) ShowTag(tagID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = tagID
	logrus.Debugf("Displaying tag %v", tagID)
	fmt.Fprintf(c.out, "RFID tag: %v\n", tagID)
}

func (c *Console) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Unavailable tells the operator once that the reader could not be reached.
func (c *Console) Unavailable() {
	fmt.Fprintln(c.out, unavailableNotice)
}

package rfid

import (
	"fmt"
	"time"
)

type StartTriggerType int
type StopTriggerType int
type HandheldEvent int

const (
	StartImmediate StartTriggerType = 0
	StartHandheld  StartTriggerType = 1

	StopImmediate           StopTriggerType = 0
	StopHandheldWithTimeout StopTriggerType = 1

	TriggerPressed  HandheldEvent = 0
	TriggerReleased HandheldEvent = 1
)

type StartTrigger struct {
	Type  StartTriggerType
	Event HandheldEvent
}

type StopTrigger struct {
	Type  StopTriggerType
	Event HandheldEvent
	// Timeout closes the scan window even if the trigger is still held. 0 waits for the release.
	Timeout time.Duration
}

// TriggerPolicy describes when a scan window opens and closes relative to the handheld trigger.
type TriggerPolicy struct {
	Start StartTrigger
	Stop  StopTrigger
}

// HandheldTriggerPolicy starts inventory when the trigger is pressed and stops it on release, or after
// timeout if that is non-zero.
func HandheldTriggerPolicy(timeout time.Duration) TriggerPolicy {
	return TriggerPolicy{
		Start: StartTrigger{Type: StartHandheld, Event: TriggerPressed},
		Stop:  StopTrigger{Type: StopHandheldWithTimeout, Event: TriggerReleased, Timeout: timeout},
	}
}

func (p TriggerPolicy) Validate() error {
	switch p.Start.Type {
	case StartImmediate, StartHandheld:
	default:
		return fmt.Errorf("unknown start trigger type %d", p.Start.Type)
	}
	switch p.Stop.Type {
	case StopImmediate, StopHandheldWithTimeout:
	default:
		return fmt.Errorf("unknown stop trigger type %d", p.Stop.Type)
	}
	if p.Stop.Timeout < 0 {
		return fmt.Errorf("negative stop trigger timeout %v", p.Stop.Timeout)
	}
	return nil
}

// opens reports whether the trigger event opens a scan window under this policy.
func (p TriggerPolicy) opens(e TriggerEvent) bool {
	if p.Start.Type != StartHandheld {
		return false
	}
	return e.Pressed == (p.Start.Event == TriggerPressed)
}

// closes reports whether the trigger event closes the current scan window.
func (p TriggerPolicy) closes(e TriggerEvent) bool {
	if p.Stop.Type != StopHandheldWithTimeout {
		return false
	}
	return e.Pressed == (p.Stop.Event == TriggerPressed)
}

package session

import (
	"facecam/internal/config"
	"fmt"
)

// Policy decides what happens to the run after a frame read failed.
type Policy interface {
	Name() string
	// ContinueAfterReadFailure reports whether a new session should be
	// started; frames is the number of frames the failed session processed.
	ContinueAfterReadFailure(frames int) bool
}

type endRun struct{}

func (endRun) Name() string { return config.ReadFailureEndRun }

func (endRun) ContinueAfterReadFailure(int) bool { return false }

type nextSession struct{}

func (nextSession) Name() string { return config.ReadFailureNextSession }

// A session that failed before its first frame means the device is gone.
func (nextSession) ContinueAfterReadFailure(frames int) bool { return frames > 0 }

var (
	// EndRunOnReadFailure closes the session and ends the whole run.
	EndRunOnReadFailure Policy = endRun{}
	// NextSessionOnReadFailure closes the session and starts the next one.
	NextSessionOnReadFailure Policy = nextSession{}
)

// PolicyByName resolves a READ_FAILURE_POLICY value.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", config.ReadFailureEndRun:
		return EndRunOnReadFailure, nil
	case config.ReadFailureNextSession:
		return NextSessionOnReadFailure, nil
	}
	return nil, fmt.Errorf("unknown read failure policy: %q", name)
}

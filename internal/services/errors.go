package services

import (
	"fmt"
	"time"
)

// InputError is a request the caller has to fix; handlers answer 400.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func invalidInput(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

func clockOrNow(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

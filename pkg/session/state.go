package session

import (
	"errors"
	"fmt"
)

// State is a phase of the session lifecycle.
type State int

const (
	Idle State = iota
	Collecting
	AwaitingTestLinks
	Computing
	Reported
	Exited
)

var stateNames = [...]string{"idle", "collecting", "awaiting-test-links", "computing", "reported", "exited"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ErrInvalidTransition is returned when an operation is called out of order.
var ErrInvalidTransition = errors.New("session: invalid transition")

// transitions lists the legal moves.
var transitions = map[State][]State{
	Idle:              {Collecting, Exited},
	Collecting:        {AwaitingTestLinks, Exited},
	AwaitingTestLinks: {Computing, Exited},
	Computing:         {Reported, Exited},
}

func (s *Session) moveTo(next State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.logger.Debug("session transition",
				zapState("from", s.state), zapState("to", next))
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
}

// require checks the current state before an operation runs.
func (s *Session) require(want State, op string) error {
	if s.state != want {
		return fmt.Errorf("%w: %s called in state %s", ErrInvalidTransition, op, s.state)
	}
	return nil
}

package webclient

import (
	"context"
	"errors"
	"sync"
)

// EnrollState tracks where one class-join attempt stands.
type EnrollState int

const (
	Unenrolled EnrollState = iota
	Submitting
	Enrolled
)

var (
	// ErrSubmitInFlight is returned when a join is attempted while a
	// previous one for the same flow has not resolved yet.
	ErrSubmitInFlight = errors.New("webclient: enrollment already submitting")
	// ErrCodeRejected is returned when the server does not recognize the
	// class code.
	ErrCodeRejected = errors.New("webclient: class code rejected")
)

// Enrollment runs the join-class flow: redeem a code against the server and,
// on success, record the membership on the session. Unlike Session its Submit
// can be raced by double-clicks and retries, so it carries a lock and rejects
// overlapping submissions instead of sending the code twice.
type Enrollment struct {
	mu      sync.Mutex
	state   EnrollState
	fetcher Fetcher
	session *Session
	class   EnrolledClass
}

func NewEnrollment(f Fetcher, s *Session) *Enrollment {
	return &Enrollment{fetcher: f, session: s}
}

// Submit redeems code. A rejected code or transport error returns the flow to
// Unenrolled without touching the session; a duplicate call while one is in
// flight fails fast with ErrSubmitInFlight.
func (e *Enrollment) Submit(ctx context.Context, code string) (EnrolledClass, error) {
	e.mu.Lock()
	if e.state == Submitting {
		e.mu.Unlock()
		return EnrolledClass{}, ErrSubmitInFlight
	}
	e.state = Submitting
	e.mu.Unlock()

	class, err := e.fetcher.JoinClass(ctx, code)
	if err == nil && class.CID == "" {
		err = ErrCodeRejected
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = Unenrolled
		return EnrolledClass{}, err
	}
	e.session.Enroll(class)
	e.state = Enrolled
	e.class = class
	return class, nil
}

// State reports the flow's current phase.
func (e *Enrollment) State() EnrollState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Class returns the class joined by the last successful Submit.
func (e *Enrollment) Class() EnrolledClass {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.class
}

// Reset returns the flow to Unenrolled so the same object can join another
// class. A reset does not undo a recorded enrollment.
func (e *Enrollment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Unenrolled
	e.class = EnrolledClass{}
}

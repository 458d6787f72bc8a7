package conversation

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrNotSubmitting      = errors.New("no submission in flight")
)

// Upload is the at-most-one pending user-selected image: raw file bytes
// plus the decoded preview metadata. Created on attach, cleared after
// every submission attempt or on explicit removal.
type Upload struct {
	Path   string
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Session is the sole mutable aggregate for one running instance: the
// turn history plus transient input state. It is a two-state machine,
// idle and submitting, with exactly two exits from submitting (Succeed
// and Fail), both of which clear the pending input.
//
// Sessions live for the process lifetime and are never persisted.
type Session struct {
	ID      string
	history *History

	pendingUpload *Upload
	inFlight      bool
	lastErr       string
}

func NewSession() *Session {
	return &Session{
		ID:      uuid.New().String(),
		history: NewHistory(),
	}
}

func (s *Session) History() *History {
	return s.history
}

func (s *Session) PendingUpload() *Upload {
	return s.pendingUpload
}

func (s *Session) InFlight() bool {
	return s.inFlight
}

func (s *Session) LastError() string {
	return s.lastErr
}

// Attach replaces any pending upload with the given one.
func (s *Session) Attach(u *Upload) {
	s.pendingUpload = u
	s.lastErr = ""
}

func (s *Session) ClearUpload() {
	s.pendingUpload = nil
}

// Begin moves the session from idle to submitting. Later submissions
// are rejected outright while one is in flight, not queued.
func (s *Session) Begin() error {
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	s.inFlight = true
	s.lastErr = ""
	return nil
}

// Succeed exits the submitting state, appending exactly one user turn
// and one bot turn. The pending input is always cleared.
func (s *Session) Succeed(userText string, userImg *Image, botText string, botImg *Image) (Turn, Turn, error) {
	if !s.inFlight {
		return Turn{}, Turn{}, ErrNotSubmitting
	}
	user := s.history.Append(RoleUser, userText, userImg)
	bot := s.history.Append(RoleBot, botText, botImg)
	s.finish()
	return user, bot, nil
}

// Fail exits the submitting state without touching the history. The
// typed text and pending upload are discarded: a failed submission does
// not preserve input for retry.
func (s *Session) Fail(err error) {
	if !s.inFlight {
		return
	}
	if err != nil {
		s.lastErr = err.Error()
	}
	s.finish()
}

func (s *Session) finish() {
	s.inFlight = false
	s.pendingUpload = nil
}

// Reset discards the conversation and returns the session to its
// initial empty state under a fresh ID.
func (s *Session) Reset() {
	s.ID = uuid.New().String()
	s.history = NewHistory()
	s.pendingUpload = nil
	s.inFlight = false
	s.lastErr = ""
}

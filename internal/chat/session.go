package chat

import (
	"errors"
	"time"

	"github.com/Adithya-srikar/Medical-chatbot/internal/booking"
)

// ErrPrecondition reports an operation attempted before the state it depends
// on was established (e.g. a draft mutation with no draft).
var ErrPrecondition = errors.New("chat: precondition not met")

// ErrSessionNotFound is returned by stores for unknown session IDs.
var ErrSessionNotFound = errors.New("chat: session not found")

// Step is the explicit conversation state. It is transitioned only by the
// Engine; free-text routing dispatches on it rather than inspecting the text
// of the last bot prompt.
type Step string

const (
	StepPhone     Step = "awaiting_phone"
	StepDOB       Step = "awaiting_dob"
	StepFirstName Step = "awaiting_first_name"
	StepLastName  Step = "awaiting_last_name"
	StepDoctor    Step = "awaiting_doctor"
	StepDate      Step = "awaiting_date"
	StepTime      Step = "awaiting_time"
	StepReason    Step = "awaiting_reason"
	StepConfirm   Step = "awaiting_confirmation"
	StepDone      Step = "done"
)

// AppointmentDraft is the in-progress appointment before final confirmation.
// At most one draft exists per session.
type AppointmentDraft struct {
	DoctorID   string           `json:"doctor_id"`
	DoctorName string           `json:"doctor_name"`
	Date       string           `json:"date"` // YYYY-MM-DD
	Slot       booking.TimeSlot `json:"slot"`
	Reason     string           `json:"reason"`
}

// Session holds one conversation: the ordered message log, the collected
// scalars, and the step state machine position.
type Session struct {
	ID             string             `json:"id"`
	Messages       []Message          `json:"messages"`
	Step           Step               `json:"step"`
	Phone          string             `json:"phone"`
	DOB            string             `json:"dob"`
	FirstName      string             `json:"first_name"`
	SelectedDoctor *booking.Doctor    `json:"selected_doctor,omitempty"`
	SelectedDate   string             `json:"selected_date"`
	AvailableSlots []booking.TimeSlot `json:"available_slots,omitempty"`
	Draft          *AppointmentDraft  `json:"draft,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewSession creates a session positioned at the start of the flow, with the
// welcome prompt as its only message.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Messages:  []Message{NewBotMessage(promptWelcome)},
		Step:      StepPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendMessage adds a message to the end of the log.
func (s *Session) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// SendBotPrompt appends a scripted bot reply, optionally with selectable
// options, and returns the created message.
func (s *Session) SendBotPrompt(text string, options ...MessageOption) Message {
	msg := NewBotMessage(text, options...)
	s.AppendMessage(msg)
	return msg
}

// LastMessage returns the most recently appended message, if any.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// StartDraft creates the appointment draft from the selected doctor, date and
// the given slot. It fails when doctor or date selection has not happened yet.
func (s *Session) StartDraft(slot booking.TimeSlot) error {
	if s.SelectedDoctor == nil || s.SelectedDate == "" {
		return ErrPrecondition
	}
	s.Draft = &AppointmentDraft{
		DoctorID:   s.SelectedDoctor.ID,
		DoctorName: s.SelectedDoctor.Name,
		Date:       s.SelectedDate,
		Slot:       slot,
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDraftReason fills in (or overwrites) the draft's visit reason.
func (s *Session) SetDraftReason(reason string) error {
	if s.Draft == nil {
		return ErrPrecondition
	}
	s.Draft.Reason = reason
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// clone returns an independent copy of the session. Stores hand out clones so
// a handler mutating its working copy never races a concurrent reader.
func (s *Session) clone() *Session {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	if s.SelectedDoctor != nil {
		doctor := *s.SelectedDoctor
		c.SelectedDoctor = &doctor
	}
	if s.AvailableSlots != nil {
		c.AvailableSlots = make([]booking.TimeSlot, len(s.AvailableSlots))
		copy(c.AvailableSlots, s.AvailableSlots)
	}
	if s.Draft != nil {
		draft := *s.Draft
		c.Draft = &draft
	}
	return &c
}

// Reset returns the session to its starting state: a single welcome prompt
// and zeroed scalars. Idempotent.
func (s *Session) Reset() {
	s.Messages = []Message{NewBotMessage(promptWelcome)}
	s.Step = StepPhone
	s.Phone = ""
	s.DOB = ""
	s.FirstName = ""
	s.SelectedDoctor = nil
	s.SelectedDate = ""
	s.AvailableSlots = nil
	s.Draft = nil
	s.UpdatedAt = time.Now().UTC()
}

// Package chat implements the conversational booking flow: the append-only
// message log, the per-session scalars and appointment draft, and the step
// router that turns user input into scripted bot replies and booking calls.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// OptionAction tags a selectable option with the handler it routes to.
type OptionAction string

const (
	ActionSelectDoctor OptionAction = "select-doctor"
	ActionSelectDate   OptionAction = "select-date"
	ActionSelectTime   OptionAction = "select-time"
	ActionConfirm      OptionAction = "confirm-appointment"
	ActionReset        OptionAction = "reset-chat"
)

// Message is a single entry in the conversation log. Messages are immutable
// once appended; the log only ever grows, except through Session.Reset.
type Message struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Sender    Sender          `json:"sender"`
	CreatedAt time.Time       `json:"created_at"`
	Options   []MessageOption `json:"options,omitempty"`
}

// MessageOption is a selectable button attached to a bot message.
type MessageOption struct {
	ID     string       `json:"id"`
	Text   string       `json:"text"`
	Value  string       `json:"value"`
	Action OptionAction `json:"action"`
}

// NewUserMessage builds a user-sent log entry.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		CreatedAt: time.Now().UTC(),
	}
}

// NewBotMessage builds a bot log entry with optional selectable options.
func NewBotMessage(text string, options ...MessageOption) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderBot,
		CreatedAt: time.Now().UTC(),
		Options:   options,
	}
}

// Scripted bot replies. The router dispatches on the session step, not on
// this text, so rewording a prompt cannot break routing.
const (
	promptWelcome      = "Welcome to our medical appointment booking service! To get started, please provide your phone number."
	promptDOB          = "Thank you. Now, please provide your date of birth (YYYY-MM-DD)."
	promptWelcomeBack  = "Welcome back! I can help you schedule an appointment. What type of appointment would you like to book?"
	promptFirstName    = "I see you're new here. Please provide your first name."
	promptLastName     = "Great! And your last name?"
	promptDoctorsIntro = "Here are our available doctors. Please select one:"
	promptPickDateLine = "Please select a date for your appointment:"
	promptSlotsIntro   = "Here are the available time slots:"
	promptReason       = "Finally, please tell me the reason for your visit in a few words."
	promptSummaryIntro = "Thank you. Here's a summary of your appointment:"
	promptConfirm      = "Would you like to confirm this appointment?"

	errValidateUser  = "Sorry, there was an error validating your information. Please try again."
	errCreateUser    = "Sorry, there was an error creating your account. Please try again."
	errFetchDoctors  = "Sorry, I couldn't fetch the list of doctors. Please try again later."
	errFetchSlots    = "Sorry, I couldn't fetch the available time slots. Please try again later."
	errDraftState    = "Sorry, there was an issue with your appointment details. Let's start over."
	errBookingFailed = "Sorry, we couldn't book your appointment. Please try again later."
)

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-srikar/Medical-chatbot/internal/booking"
	"github.com/Adithya-srikar/Medical-chatbot/internal/observability/metrics"
	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

// BookingService is the slice of the remote booking API the engine needs.
// Substituted with a fake in tests.
type BookingService interface {
	ValidateUser(ctx context.Context, phoneNumber, dob string) (*booking.ValidateUserResponse, error)
	CreateUser(ctx context.Context, firstName, lastName, phoneNumber, dob string) (*booking.CreateUserResponse, error)
	ListDoctors(ctx context.Context) ([]booking.Doctor, error)
	ListTimeSlots(ctx context.Context, doctorID, date string) ([]booking.TimeSlot, error)
	BookAppointment(ctx context.Context, appt booking.AppointmentRequest) (*booking.AppointmentResponse, error)
}

// Engine is the step router. It translates one piece of user input into the
// next session mutations and, where required, a call to the booking service.
// Every remote failure is converted into a single generic bot message; no
// call is retried.
type Engine struct {
	svc     BookingService
	logger  *logging.Logger
	metrics *metrics.ChatMetrics
	now     func() time.Time
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithMetrics attaches chat metrics.
func WithMetrics(m *metrics.ChatMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock overrides the time source, used by tests to pin date options.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates the step router.
func NewEngine(svc BookingService, logger *logging.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		svc:    svc,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleText routes one free-text submission. The user message is always
// appended; where the session step has no free-text handler the input is
// logged and otherwise ignored.
func (e *Engine) HandleText(ctx context.Context, s *Session, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	e.appendUser(s, text)

	switch s.Step {
	case StepPhone:
		s.Phone = text
		e.sendBot(s, promptDOB)
		s.Step = StepDOB
	case StepDOB:
		s.DOB = text
		e.validatePatient(ctx, s)
	case StepFirstName:
		s.FirstName = text
		e.sendBot(s, promptLastName)
		s.Step = StepLastName
	case StepLastName:
		e.registerPatient(ctx, s, text)
	default:
		e.logger.Debug("chat: free text outside a text step", "session_id", s.ID, "step", s.Step)
	}
}

// HandleOption routes a clicked option by its action tag.
func (e *Engine) HandleOption(ctx context.Context, s *Session, opt MessageOption) {
	switch opt.Action {
	case ActionSelectDoctor:
		e.selectDoctor(ctx, s, opt.Value)
	case ActionSelectDate:
		e.selectDate(ctx, s, opt.Value)
	case ActionSelectTime:
		e.selectTime(s, opt.Value)
	case ActionConfirm:
		if opt.Value == "yes" {
			e.finalizeBooking(ctx, s)
		} else {
			s.Reset()
		}
	case ActionReset:
		s.Reset()
	default:
		e.logger.Warn("chat: unknown option action", "session_id", s.ID, "action", opt.Action)
	}
}

// HandleReason routes the dedicated reason-entry affordance. It is not part
// of the general free-text routing.
func (e *Engine) HandleReason(ctx context.Context, s *Session, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	e.appendUser(s, reason)

	if err := s.SetDraftReason(reason); err != nil {
		e.logger.Error("chat: reason submitted without a draft", "session_id", s.ID, "error", err)
		e.sendBot(s, errDraftState)
		s.Reset()
		return
	}

	draft := s.Draft
	summary := fmt.Sprintf("%s\n\nDoctor: %s\nDate: %s\nTime: %s\nReason: %s",
		promptSummaryIntro, draft.DoctorName, formatDisplayDate(draft.Date), draft.Slot.Time, draft.Reason)

	e.sendBot(s, summary)
	e.sendBot(s, promptConfirm,
		MessageOption{ID: "confirm-yes", Text: "Yes, confirm appointment", Value: "yes", Action: ActionConfirm},
		MessageOption{ID: "confirm-no", Text: "No, start over", Value: "no", Action: ActionReset},
	)
	s.Step = StepConfirm
}

func (e *Engine) validatePatient(ctx context.Context, s *Session) {
	resp, err := e.svc.ValidateUser(ctx, s.Phone, s.DOB)
	e.metrics.ObserveRemoteCall("validate_user", err)
	if err != nil {
		e.logger.Error("chat: validate user failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errValidateUser)
		s.Reset()
		return
	}

	if resp.PatientExists() {
		e.sendBot(s, promptWelcomeBack)
		e.presentDoctors(ctx, s)
		return
	}

	e.sendBot(s, promptFirstName)
	s.Step = StepFirstName
}

func (e *Engine) registerPatient(ctx context.Context, s *Session, lastName string) {
	_, err := e.svc.CreateUser(ctx, s.FirstName, lastName, s.Phone, s.DOB)
	e.metrics.ObserveRemoteCall("create_user", err)
	if err != nil {
		e.logger.Error("chat: create user failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errCreateUser)
		s.Reset()
		return
	}

	e.sendBot(s, fmt.Sprintf("Thank you, %s! Let's schedule your appointment. What type of appointment would you like to book?", s.FirstName))
	e.presentDoctors(ctx, s)
}

// presentDoctors fetches the directory and renders it as selectable options.
// On failure the user stays at the current step with no retry offered.
func (e *Engine) presentDoctors(ctx context.Context, s *Session) {
	doctors, err := e.svc.ListDoctors(ctx)
	e.metrics.ObserveRemoteCall("list_doctors", err)
	if err != nil {
		e.logger.Error("chat: list doctors failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errFetchDoctors)
		return
	}

	options := make([]MessageOption, 0, len(doctors))
	for _, d := range doctors {
		options = append(options, MessageOption{
			ID:     d.ID,
			Text:   fmt.Sprintf("%s - %s", d.Name, d.Specialty),
			Value:  d.ID,
			Action: ActionSelectDoctor,
		})
	}

	e.sendBot(s, promptDoctorsIntro, options...)
	s.Step = StepDoctor
}

func (e *Engine) selectDoctor(ctx context.Context, s *Session, doctorID string) {
	doctors, err := e.svc.ListDoctors(ctx)
	e.metrics.ObserveRemoteCall("list_doctors", err)
	if err != nil {
		e.logger.Error("chat: list doctors failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errFetchDoctors)
		return
	}

	var selected *booking.Doctor
	for i := range doctors {
		if doctors[i].ID == doctorID {
			selected = &doctors[i]
			break
		}
	}
	if selected == nil {
		e.logger.Warn("chat: selected doctor not in directory", "session_id", s.ID, "doctor_id", doctorID)
		return
	}

	s.SelectedDoctor = selected
	e.sendBot(s, fmt.Sprintf("You've selected Dr. %s. Great choice!", selected.Name))
	e.sendBot(s, promptPickDateLine, upcomingDateOptions(e.now())...)
	s.Step = StepDate
}

func (e *Engine) selectDate(ctx context.Context, s *Session, date string) {
	if s.SelectedDoctor == nil {
		e.sendBot(s, errDraftState)
		s.Reset()
		return
	}

	s.SelectedDate = date
	e.sendBot(s, fmt.Sprintf("You've selected %s. Let me check the available time slots.", formatDisplayDate(date)))

	slots, err := e.svc.ListTimeSlots(ctx, s.SelectedDoctor.ID, date)
	e.metrics.ObserveRemoteCall("list_time_slots", err)
	if err != nil {
		// The user stays on this step; resubmitting the date is their retry.
		e.logger.Error("chat: list time slots failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errFetchSlots)
		return
	}

	s.AvailableSlots = slots
	options := make([]MessageOption, 0, len(slots))
	for _, slot := range slots {
		options = append(options, MessageOption{
			ID:     slot.ID,
			Text:   slot.Time,
			Value:  slot.ID,
			Action: ActionSelectTime,
		})
	}

	e.sendBot(s, promptSlotsIntro, options...)
	s.Step = StepTime
}

// selectTime resolves the slot against the most recently fetched list. An
// unknown slot ID is a silent no-op: no draft, no crash.
func (e *Engine) selectTime(s *Session, slotID string) {
	var selected *booking.TimeSlot
	for i := range s.AvailableSlots {
		if s.AvailableSlots[i].ID == slotID {
			selected = &s.AvailableSlots[i]
			break
		}
	}
	if selected == nil {
		e.logger.Warn("chat: selected slot not in fetched list", "session_id", s.ID, "slot_id", slotID)
		return
	}

	e.sendBot(s, fmt.Sprintf("You've selected %s.", selected.Time))

	if err := s.StartDraft(*selected); err != nil {
		e.logger.Error("chat: draft creation failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errDraftState)
		s.Reset()
		return
	}

	e.sendBot(s, promptReason)
	s.Step = StepReason
}

func (e *Engine) finalizeBooking(ctx context.Context, s *Session) {
	if s.Draft == nil {
		e.sendBot(s, errDraftState)
		s.Reset()
		return
	}

	resp, err := e.svc.BookAppointment(ctx, booking.AppointmentRequest{
		DoctorID:   s.Draft.DoctorID,
		DoctorName: s.Draft.DoctorName,
		Date:       s.Draft.Date,
		TimeSlot:   s.Draft.Slot,
		Reason:     s.Draft.Reason,
	})
	e.metrics.ObserveRemoteCall("book_appointment", err)
	if err != nil || !resp.Success {
		// Booking is atomic from the user's perspective: the failure message
		// is the only feedback and the draft stays for another attempt.
		e.metrics.ObserveBooking("failed")
		e.logger.Error("chat: booking failed", "session_id", s.ID, "error", err)
		e.sendBot(s, errBookingFailed)
		return
	}

	e.metrics.ObserveBooking("booked")
	confirmation := "Your appointment has been booked!"
	if resp.AppointmentID != "" {
		confirmation = fmt.Sprintf("Your appointment has been booked! Your confirmation number is %s.", resp.AppointmentID)
	}
	e.sendBot(s, confirmation,
		MessageOption{ID: "book-another", Text: "Book another appointment", Value: "reset", Action: ActionReset},
	)
	s.Draft = nil
	s.Step = StepDone
}

func (e *Engine) appendUser(s *Session, text string) {
	s.AppendMessage(NewUserMessage(text))
	e.metrics.ObserveMessage(string(SenderUser))
}

func (e *Engine) sendBot(s *Session, text string, options ...MessageOption) {
	s.SendBotPrompt(text, options...)
	e.metrics.ObserveMessage(string(SenderBot))
}

// Package wizard implements the step-by-step trip creation flow.
//
// A Wizard accumulates a Draft across three ordered steps (destination,
// timeline, budget). Moving between steps never validates; validation happens
// once, in Submit, which hands a finished domain.Trip to the store.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// Step is a 1-based position in the wizard.
type Step int

const (
	StepDestination Step = iota + 1
	StepTimeline
	StepBudget
)

// FirstStep and LastStep bound Next and Back.
const (
	FirstStep = StepDestination
	LastStep  = StepBudget
)

func (s Step) String() string {
	switch s {
	case StepDestination:
		return "destination"
	case StepTimeline:
		return "timeline"
	case StepBudget:
		return "budget"
	}
	return "step(" + strconv.Itoa(int(s)) + ")"
}

// Status tracks the submission lifecycle independently of the step.
type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusDone       Status = "done"
	// StatusFailed means the last submit reached the store and failed.
	// The wizard stays editable and Submit may be called again.
	StatusFailed Status = "failed"
)

// Field names a draft field that SetField can assign.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDestination Field = "destination"
	FieldStartDate   Field = "start_date"
	FieldEndDate     Field = "end_date"
	FieldBudget      Field = "budget"
	FieldCoverImage  Field = "cover_image"
)

// ParseField converts a wire name into a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldTitle, FieldDestination, FieldStartDate, FieldEndDate, FieldBudget, FieldCoverImage:
		return f, nil
	}
	return "", domain.NewValidationError(name, "unknown field")
}

// DateLayout is the format expected for StartDate and EndDate.
const DateLayout = "2006-01-02"

// Draft holds the raw values entered so far.
type Draft struct {
	Title       string
	Destination string
	StartDate   string
	EndDate     string
	Budget      domain.Money
	CoverImage  string
}

// TripCreator is the slice of the trip store the wizard writes to.
type TripCreator interface {
	Create(ctx context.Context, trip domain.Trip) (string, error)
}

// View is a point-in-time copy of the wizard state.
type View struct {
	Step      Step
	Status    Status
	Draft     Draft
	TripID    string
	LastError string
}

// Wizard is safe for concurrent use. The store call made by Submit runs
// outside the lock so fields stay editable while it is pending.
type Wizard struct {
	store TripCreator
	now   func() time.Time

	mu      sync.Mutex
	step    Step
	status  Status
	draft   Draft
	tripID  string
	lastErr error
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// New returns a wizard on the first step with an empty draft.
func New(store TripCreator, opts ...Option) *Wizard {
	w := &Wizard{
		store:  store,
		now:    time.Now,
		step:   FirstStep,
		status: StatusEditing,
		draft:  Draft{CoverImage: DefaultCoverImage},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetField assigns value to f. The last assignment wins.
// Budget values that do not parse as an integer become 0.
// Setting the destination also picks a matching cover image.
func (w *Wizard) SetField(f Field, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch f {
	case FieldTitle:
		w.draft.Title = value
	case FieldDestination:
		w.draft.Destination = value
		if s, ok := matchSuggestion(value); ok {
			w.draft.CoverImage = s.CoverImage
		}
	case FieldStartDate:
		w.draft.StartDate = value
	case FieldEndDate:
		w.draft.EndDate = value
	case FieldBudget:
		w.draft.Budget = parseMoney(value)
	case FieldCoverImage:
		w.draft.CoverImage = value
	}
}

// SetBudget assigns an already-numeric budget, e.g. from a preset.
func (w *Wizard) SetBudget(amount domain.Money) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Budget = amount
}

// ChooseSuggestion fills destination, title and cover image from the
// suggested city. It reports false when the city is not a suggestion.
func (w *Wizard) ChooseSuggestion(city string) bool {
	s, ok := findSuggestion(city)
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Destination = s.Destination()
	w.draft.Title = s.City + " Adventure"
	w.draft.CoverImage = s.CoverImage
	return true
}

// Next moves forward one step; it is a no-op on the last step.
func (w *Wizard) Next() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step < LastStep {
		w.step++
	}
	return w.step
}

// Back moves back one step; it is a no-op on the first step.
func (w *Wizard) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > FirstStep {
		w.step--
	}
	return w.step
}

// View returns a copy of the current state.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{Step: w.step, Status: w.status, Draft: w.draft, TripID: w.tripID}
	if w.lastErr != nil {
		v.LastError = w.lastErr.Error()
	}
	return v
}

// Submit validates the draft and creates the trip for user.
//
// Validation and authentication failures perform no I/O and leave the wizard
// where it was. A store failure sets StatusFailed, returns to the last step
// and keeps the draft, so calling Submit again retries with the same data.
// Once a trip has been created, further calls return its id without writing.
func (w *Wizard) Submit(ctx context.Context, user *domain.User) (string, error) {
	w.mu.Lock()
	switch w.status {
	case StatusDone:
		id := w.tripID
		w.mu.Unlock()
		return id, nil
	case StatusSubmitting:
		w.mu.Unlock()
		return "", fmt.Errorf("wizard.Wizard.Submit: %w", domain.ErrSubmitInProgress)
	}

	trip, err := buildTrip(w.draft, user, w.now())
	if err != nil {
		w.mu.Unlock()
		return "", fmt.Errorf("wizard.Wizard.Submit: %w", err)
	}
	w.status = StatusSubmitting
	w.mu.Unlock()

	id, err := w.store.Create(ctx, trip)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		w.status = StatusFailed
		w.step = LastStep
		w.lastErr = err
		return "", fmt.Errorf("wizard.Wizard.Submit: %w", err)
	}

	w.status = StatusDone
	w.tripID = id
	w.lastErr = nil
	return id, nil
}

// buildTrip validates d and turns it into the trip handed to the store.
// Field checks come before the identity check so an incomplete form is
// reported as such regardless of who is signed in.
func buildTrip(d Draft, user *domain.User, now time.Time) (domain.Trip, error) {
	if strings.TrimSpace(d.Destination) == "" {
		return domain.Trip{}, domain.NewValidationError(string(FieldDestination), "destination is required")
	}
	start, err := parseDate(FieldStartDate, d.StartDate)
	if err != nil {
		return domain.Trip{}, err
	}
	end, err := parseDate(FieldEndDate, d.EndDate)
	if err != nil {
		return domain.Trip{}, err
	}
	if end.Before(start) {
		return domain.Trip{}, domain.NewValidationError(string(FieldEndDate), "end date must not be before start date")
	}
	if d.Budget <= 0 {
		return domain.Trip{}, domain.NewValidationError(string(FieldBudget), "budget must be greater than zero")
	}
	if user == nil || user.UID == "" {
		return domain.Trip{}, domain.ErrNotAuthenticated
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = strings.TrimSpace(d.Destination)
	}

	return domain.Trip{
		OwnerID:       user.UID,
		Title:         title,
		Destination:   strings.TrimSpace(d.Destination),
		StartDate:     start,
		EndDate:       end,
		Budget:        d.Budget,
		Spent:         0,
		CoverImage:    d.CoverImage,
		IsPublic:      false,
		Stops:         []domain.Stop{},
		Collaborators: []string{user.UID},
		CreatedAt:     now.UTC(),
	}, nil
}

func parseDate(f Field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.NewValidationError(string(f), "date is required")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(string(f), "date must be formatted YYYY-MM-DD")
	}
	return t, nil
}

// parseMoney parses an integer amount, falling back to 0.
func parseMoney(s string) domain.Money {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

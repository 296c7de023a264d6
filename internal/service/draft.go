package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/session"
	"github.com/pkordes/globe-trotter/internal/wizard"
)

// fieldOrder is the order SetFields applies a batch in. Destination comes
// before cover image so an explicit image overrides the suggested one.
var fieldOrder = []wizard.Field{
	wizard.FieldTitle,
	wizard.FieldDestination,
	wizard.FieldStartDate,
	wizard.FieldEndDate,
	wizard.FieldBudget,
	wizard.FieldCoverImage,
}

// DraftSession is a wizard's state together with its session id.
type DraftSession struct {
	ID string
	wizard.View
}

// DraftService runs step-by-step trip creation as server-side sessions.
// Each draft belongs to the user who started it.
type DraftService struct {
	store  wizard.TripCreator
	drafts *session.Registry[*wizard.Wizard]
	now    func() time.Time
}

// NewDraftService constructs a DraftService. Created trips are written to
// store; drafts idle for longer than ttl are discarded.
func NewDraftService(store wizard.TripCreator, ttl time.Duration) *DraftService {
	return &DraftService{store: store, drafts: session.NewRegistry[*wizard.Wizard](ttl), now: time.Now}
}

// Start opens a new draft on the first step.
func (s *DraftService) Start(ctx context.Context, user *domain.User) (DraftSession, error) {
	if err := requireUser(user); err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.Start: %w", err)
	}
	w := wizard.New(s.store, wizard.WithClock(s.now))
	id := s.drafts.Put(user.UID, w)
	return DraftSession{ID: id, View: w.View()}, nil
}

// Get returns the current state of a draft.
func (s *DraftService) Get(ctx context.Context, user *domain.User, id string) (DraftSession, error) {
	w, err := s.lookup(user, id)
	if err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.Get: %w", err)
	}
	return DraftSession{ID: id, View: w.View()}, nil
}

// SetFields assigns a batch of fields by wire name. Unknown names reject the
// whole batch before anything is assigned.
func (s *DraftService) SetFields(ctx context.Context, user *domain.User, id string, values map[string]string) (DraftSession, error) {
	w, err := s.lookup(user, id)
	if err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.SetFields: %w", err)
	}

	parsed := make(map[wizard.Field]string, len(values))
	for name, v := range values {
		f, err := wizard.ParseField(name)
		if err != nil {
			return DraftSession{}, fmt.Errorf("service.DraftService.SetFields: %w", err)
		}
		parsed[f] = v
	}
	for _, f := range fieldOrder {
		if v, ok := parsed[f]; ok {
			w.SetField(f, v)
		}
	}
	return DraftSession{ID: id, View: w.View()}, nil
}

// ChooseSuggestion fills the draft from a popular destination.
func (s *DraftService) ChooseSuggestion(ctx context.Context, user *domain.User, id, city string) (DraftSession, error) {
	w, err := s.lookup(user, id)
	if err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.ChooseSuggestion: %w", err)
	}
	if !w.ChooseSuggestion(city) {
		return DraftSession{}, fmt.Errorf("service.DraftService.ChooseSuggestion: %w",
			domain.NewValidationError("city", "not a suggested destination"))
	}
	return DraftSession{ID: id, View: w.View()}, nil
}

// Next advances the draft one step.
func (s *DraftService) Next(ctx context.Context, user *domain.User, id string) (DraftSession, error) {
	w, err := s.lookup(user, id)
	if err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.Next: %w", err)
	}
	w.Next()
	return DraftSession{ID: id, View: w.View()}, nil
}

// Back moves the draft back one step.
func (s *DraftService) Back(ctx context.Context, user *domain.User, id string) (DraftSession, error) {
	w, err := s.lookup(user, id)
	if err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.Back: %w", err)
	}
	w.Back()
	return DraftSession{ID: id, View: w.View()}, nil
}

// Submit creates the trip. The draft is kept afterwards so repeated submits
// return the same trip id.
func (s *DraftService) Submit(ctx context.Context, user *domain.User, id string) (DraftSession, error) {
	w, err := s.lookup(user, id)
	if err != nil {
		return DraftSession{}, fmt.Errorf("service.DraftService.Submit: %w", err)
	}
	if _, err := w.Submit(ctx, user); err != nil {
		logStoreFailure(ctx, "submit draft", err, "draft_id", id)
		return DraftSession{ID: id, View: w.View()}, fmt.Errorf("service.DraftService.Submit: %w", err)
	}
	return DraftSession{ID: id, View: w.View()}, nil
}

// Discard drops the draft.
func (s *DraftService) Discard(ctx context.Context, user *domain.User, id string) error {
	if err := requireUser(user); err != nil {
		return fmt.Errorf("service.DraftService.Discard: %w", err)
	}
	if err := s.drafts.Delete(user.UID, id); err != nil {
		return fmt.Errorf("service.DraftService.Discard: %w", err)
	}
	return nil
}

func (s *DraftService) lookup(user *domain.User, id string) (*wizard.Wizard, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.drafts.Get(user.UID, id)
}

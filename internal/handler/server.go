// Package handler implements the HTTP handlers for the Globe Trotter API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, draft.go, etc.) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/idempotency"
	"github.com/pkordes/globe-trotter/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching a store or the service layer.
type TripServicer interface {
	Create(ctx context.Context, user *domain.User, in service.TripInput) (domain.Trip, error)
	GetByID(ctx context.Context, user *domain.User, id string) (domain.Trip, error)
	ListForUser(ctx context.Context, user *domain.User, phase *domain.Phase, params domain.PaginationParams) ([]domain.Trip, int, error)
	AddStop(ctx context.Context, user *domain.User, tripID string, stop domain.Stop) (domain.Stop, error)
	Export(ctx context.Context, user *domain.User, tripID string) ([]domain.ExportRow, error)
	Clone(ctx context.Context, user *domain.User, tripID string) (domain.Trip, error)
}

// ProfileServicer defines the profile operations behind /me.
type ProfileServicer interface {
	Get(ctx context.Context, user *domain.User) (service.ProfileView, error)
	Update(ctx context.Context, user *domain.User, patch domain.ProfilePatch) (service.ProfileView, error)
}

// DraftServicer defines the step-by-step trip creation operations.
type DraftServicer interface {
	Start(ctx context.Context, user *domain.User) (service.DraftSession, error)
	Get(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	SetFields(ctx context.Context, user *domain.User, id string, values map[string]string) (service.DraftSession, error)
	ChooseSuggestion(ctx context.Context, user *domain.User, id, city string) (service.DraftSession, error)
	Next(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	Back(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	Submit(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	Discard(ctx context.Context, user *domain.User, id string) error
}

// ItineraryServicer defines the itinerary editing operations.
type ItineraryServicer interface {
	Open(ctx context.Context, user *domain.User, tripID string) (service.Itinerary, error)
	Get(ctx context.Context, user *domain.User, sessionID string) (service.Itinerary, error)
	AddSection(ctx context.Context, user *domain.User, sessionID string) (string, service.Itinerary, error)
	UpdateSection(ctx context.Context, user *domain.User, sessionID, sectionID string, values map[string]string) (service.Itinerary, error)
	RemoveSection(ctx context.Context, user *domain.User, sessionID, sectionID string) (service.Itinerary, error)
	ToggleSection(ctx context.Context, user *domain.User, sessionID, sectionID string) (service.Itinerary, error)
	AddItem(ctx context.Context, user *domain.User, sessionID, sectionID string) (string, service.Itinerary, error)
	UpdateItem(ctx context.Context, user *domain.User, sessionID, sectionID, itemID string, values map[string]string) (service.Itinerary, error)
	RemoveItem(ctx context.Context, user *domain.User, sessionID, sectionID, itemID string) (service.Itinerary, error)
	Commit(ctx context.Context, user *domain.User, sessionID string) (service.Itinerary, error)
	Close(ctx context.Context, user *domain.User, sessionID string) error
}

// Server serves every API endpoint.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips       TripServicer
	drafts      DraftServicer
	itineraries ItineraryServicer
	profiles    ProfileServicer
	guard       idempotency.Guard
	now         func() time.Time
}

// NewServer constructs the Server with all its dependencies.
// guard may be nil, in which case Idempotency-Key headers are ignored.
func NewServer(trips TripServicer, drafts DraftServicer, itineraries ItineraryServicer, guard idempotency.Guard) *Server {
	return &Server{
		trips:       trips,
		drafts:      drafts,
		itineraries: itineraries,
		guard:       guard,
		now:         time.Now,
	}
}

// WithProfiles enables the /me endpoints and returns s.
func (s *Server) WithProfiles(profiles ProfileServicer) *Server {
	s.profiles = profiles
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Routes mounts every endpoint on a chi router. authenticate wraps all routes
// except /healthz and /openapi.yaml; it is expected to store the caller in the
// request context with auth.WithUser.
func (s *Server) Routes(authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/suggestions", s.ListSuggestions)

		if s.profiles != nil {
			r.Get("/me", s.GetProfile)
			r.Patch("/me", s.UpdateProfile)
		}

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Route("/{tripId}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Post("/stops", s.AddStop)
				r.Get("/export", s.ExportTrip)
				r.Post("/itinerary", s.OpenItinerary)
				r.Post("/clone", s.CloneTrip)
			})
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", s.StartDraft)
			r.Route("/{draftId}", func(r chi.Router) {
				r.Get("/", s.GetDraft)
				r.Patch("/", s.UpdateDraft)
				r.Delete("/", s.DiscardDraft)
				r.Post("/suggestion", s.ChooseSuggestion)
				r.Post("/next", s.NextStep)
				r.Post("/back", s.PreviousStep)
				r.Post("/submit", s.SubmitDraft)
			})
		})

		r.Route("/itineraries/{sessionId}", func(r chi.Router) {
			r.Get("/", s.GetItinerary)
			r.Delete("/", s.CloseItinerary)
			r.Post("/commit", s.CommitItinerary)
			r.Post("/sections", s.AddSection)
			r.Route("/sections/{sectionId}", func(r chi.Router) {
				r.Patch("/", s.UpdateSection)
				r.Delete("/", s.RemoveSection)
				r.Post("/toggle", s.ToggleSection)
				r.Post("/items", s.AddItem)
				r.Patch("/items/{itemId}", s.UpdateItem)
				r.Delete("/items/{itemId}", s.RemoveItem)
			})
		})
	})
	return r
}

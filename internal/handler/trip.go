package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/idempotency"
	"github.com/pkordes/globe-trotter/internal/service"
)

// IdempotencyKeyHeader lets clients retry POST /trips without creating a
// second trip.
const IdempotencyKeyHeader = "Idempotency-Key"

// TripRequest is the body of POST /trips. Dates are pointers so a missing
// date reaches validation as empty instead of as year 1.
type TripRequest struct {
	Title       string              `json:"title"`
	Destination string              `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	Budget      domain.Money        `json:"budget"`
	CoverImage  string              `json:"cover_image"`
}

// TripResponse is the wire form of a trip.
type TripResponse struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"owner_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	Destination   string             `json:"destination"`
	StartDate     openapi_types.Date `json:"start_date"`
	EndDate       openapi_types.Date `json:"end_date"`
	Budget        domain.Money       `json:"budget"`
	Spent         domain.Money       `json:"spent"`
	Utilization   int                `json:"utilization"`
	Phase         domain.Phase       `json:"phase"`
	CoverImage    string             `json:"cover_image,omitempty"`
	IsPublic      bool               `json:"is_public"`
	Stops         []domain.Stop      `json:"stops"`
	Collaborators []string           `json:"collaborators"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TripListResponse is the body of GET /trips.
type TripListResponse struct {
	Data       []TripResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// CreateTrip handles POST /trips.
// With an Idempotency-Key header, a retry of a finished request returns the
// trip it created with 200, and a retry of a pending one gets 409.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	ctx := r.Context()
	user := currentUser(r)
	clientKey := r.Header.Get(IdempotencyKeyHeader)
	if clientKey == "" || s.guard == nil || user == nil {
		s.createTrip(w, r, user, req)
		return
	}

	key := idempotency.Key(user.UID, clientKey)
	tripID, done, err := s.guard.Begin(ctx, key)
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	if done {
		trip, err := s.trips.GetByID(ctx, user, tripID)
		if err != nil {
			writeServiceError(w, r, err, "trip not found")
			return
		}
		writeJSON(w, r, http.StatusOK, tripToResponse(trip, s.now()))
		return
	}

	trip, ok := s.createTrip(w, r, user, req)
	if !ok {
		if err := s.guard.Abort(ctx, key); err != nil {
			slog.WarnContext(ctx, "release idempotency key", "error", err)
		}
		return
	}
	if err := s.guard.Complete(ctx, key, trip.ID); err != nil {
		slog.WarnContext(ctx, "complete idempotency key", "error", err, "trip_id", trip.ID)
	}
}

// createTrip runs the create and writes the response. It reports whether a
// trip was created.
func (s *Server) createTrip(w http.ResponseWriter, r *http.Request, user *domain.User, req TripRequest) (domain.Trip, bool) {
	created, err := s.trips.Create(r.Context(), user, requestToTripInput(req))
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return domain.Trip{}, false
	}
	writeJSON(w, r, http.StatusCreated, tripToResponse(created, s.now()))
	return created, true
}

// ListTrips handles GET /trips.
// Supports ?phase=ongoing|upcoming|completed, ?page= and ?limit= (defaults:
// page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	var phase *domain.Phase
	if raw := r.URL.Query().Get("phase"); raw != "" {
		p, ok := domain.ParsePhase(raw)
		if !ok {
			writeServiceError(w, r, domain.NewValidationError("phase", "phase must be ongoing, upcoming or completed"), "")
			return
		}
		phase = &p
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListForUser(r.Context(), currentUser(r), phase, params)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	now := s.now()
	data := make([]TripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t, now)
	}
	writeJSON(w, r, http.StatusOK, TripListResponse{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.GetByID(r.Context(), currentUser(r), chi.URLParam(r, "tripId"))
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, r, http.StatusOK, tripToResponse(trip, s.now()))
}

// AddStop handles POST /trips/{tripId}/stops.
// The body is a stop with optional activities; ids are generated when absent.
func (s *Server) AddStop(w http.ResponseWriter, r *http.Request) {
	var stop domain.Stop
	if err := decodeJSON(r, &stop); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	created, err := s.trips.AddStop(r.Context(), currentUser(r), chi.URLParam(r, "tripId"), stop)
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// CloneTrip handles POST /trips/{tripId}/clone.
// The caller becomes the owner of a new trip copied from one they can read.
func (s *Server) CloneTrip(w http.ResponseWriter, r *http.Request) {
	clone, err := s.trips.Clone(r.Context(), currentUser(r), chi.URLParam(r, "tripId"))
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, r, http.StatusCreated, tripToResponse(clone, s.now()))
}

// ---- mapping helpers -------------------------------------------------------

func requestToTripInput(req TripRequest) service.TripInput {
	return service.TripInput{
		Title:       req.Title,
		Destination: req.Destination,
		StartDate:   formatOptionalDate(req.StartDate),
		EndDate:     formatOptionalDate(req.EndDate),
		Budget:      req.Budget,
		CoverImage:  req.CoverImage,
	}
}

func tripToResponse(t domain.Trip, now time.Time) TripResponse {
	stops := t.Stops
	if stops == nil {
		stops = []domain.Stop{}
	}
	collaborators := t.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	return TripResponse{
		ID:            t.ID,
		OwnerID:       t.OwnerID,
		Title:         t.Title,
		Description:   t.Description,
		Destination:   t.Destination,
		StartDate:     openapi_types.Date{Time: t.StartDate},
		EndDate:       openapi_types.Date{Time: t.EndDate},
		Budget:        t.Budget,
		Spent:         t.Spent,
		Utilization:   t.Utilization(),
		Phase:         t.Phase(now),
		CoverImage:    t.CoverImage,
		IsPublic:      t.IsPublic,
		Stops:         stops,
		Collaborators: collaborators,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// formatOptionalDate returns d as "2006-01-02", or "" when d is nil.
func formatOptionalDate(d *openapi_types.Date) string {
	if d == nil {
		return ""
	}
	return d.Format(openapi_types.DateFormat)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/service"
	"github.com/pkordes/globe-trotter/internal/wizard"
)

// DraftFields mirrors the values entered so far. Dates stay raw text here
// because a draft may hold a half-typed date.
type DraftFields struct {
	Title       string       `json:"title"`
	Destination string       `json:"destination"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Budget      domain.Money `json:"budget"`
	CoverImage  string       `json:"cover_image"`
}

// DraftResponse is the wire form of a trip creation draft.
type DraftResponse struct {
	ID        string        `json:"id"`
	Step      int           `json:"step"`
	StepName  string        `json:"step_name"`
	Status    wizard.Status `json:"status"`
	Draft     DraftFields   `json:"draft"`
	TripID    string        `json:"trip_id,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// SuggestionRequest is the body of POST /drafts/{draftId}/suggestion.
type SuggestionRequest struct {
	City string `json:"city"`
}

// Suggestion is one popular destination.
type Suggestion struct {
	City        string `json:"city"`
	Country     string `json:"country"`
	Destination string `json:"destination"`
	CoverImage  string `json:"cover_image"`
}

// SuggestionsResponse is the body of GET /suggestions.
type SuggestionsResponse struct {
	Destinations  []Suggestion   `json:"destinations"`
	BudgetPresets []domain.Money `json:"budget_presets"`
}

// ListSuggestions handles GET /suggestions.
func (s *Server) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	all := wizard.Suggestions()
	out := SuggestionsResponse{
		Destinations:  make([]Suggestion, len(all)),
		BudgetPresets: wizard.BudgetPresets(),
	}
	for i, sg := range all {
		out.Destinations[i] = Suggestion{
			City:        sg.City,
			Country:     sg.Country,
			Destination: sg.Destination(),
			CoverImage:  sg.CoverImage,
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// StartDraft handles POST /drafts.
func (s *Server) StartDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.drafts.Start(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, err, "draft not found")
		return
	}
	writeJSON(w, r, http.StatusCreated, draftToResponse(d))
}

// GetDraft handles GET /drafts/{draftId}.
func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.drafts.Get(r.Context(), currentUser(r), chi.URLParam(r, "draftId"))
	s.writeDraft(w, r, d, err)
}

// UpdateDraft handles PATCH /drafts/{draftId}.
// The body is a flat object of field assignments, e.g. {"budget": 2500}.
func (s *Server) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	values, err := decodeFields(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	d, err := s.drafts.SetFields(r.Context(), currentUser(r), chi.URLParam(r, "draftId"), values)
	s.writeDraft(w, r, d, err)
}

// ChooseSuggestion handles POST /drafts/{draftId}/suggestion.
func (s *Server) ChooseSuggestion(w http.ResponseWriter, r *http.Request) {
	var req SuggestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	d, err := s.drafts.ChooseSuggestion(r.Context(), currentUser(r), chi.URLParam(r, "draftId"), req.City)
	s.writeDraft(w, r, d, err)
}

// NextStep handles POST /drafts/{draftId}/next.
func (s *Server) NextStep(w http.ResponseWriter, r *http.Request) {
	d, err := s.drafts.Next(r.Context(), currentUser(r), chi.URLParam(r, "draftId"))
	s.writeDraft(w, r, d, err)
}

// PreviousStep handles POST /drafts/{draftId}/back.
func (s *Server) PreviousStep(w http.ResponseWriter, r *http.Request) {
	d, err := s.drafts.Back(r.Context(), currentUser(r), chi.URLParam(r, "draftId"))
	s.writeDraft(w, r, d, err)
}

// SubmitDraft handles POST /drafts/{draftId}/submit.
// A failed submit that reached the store still returns the draft so the
// client can show last_error; validation failures return the usual 422 body.
func (s *Server) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.drafts.Submit(r.Context(), currentUser(r), chi.URLParam(r, "draftId"))
	if errors.Is(err, domain.ErrStoreUnavailable) {
		writeJSON(w, r, http.StatusServiceUnavailable, draftToResponse(d))
		return
	}
	s.writeDraft(w, r, d, err)
}

// DiscardDraft handles DELETE /drafts/{draftId}.
func (s *Server) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.drafts.Discard(r.Context(), currentUser(r), chi.URLParam(r, "draftId")); err != nil {
		writeServiceError(w, r, err, "draft not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeDraft(w http.ResponseWriter, r *http.Request, d service.DraftSession, err error) {
	if err != nil {
		writeServiceError(w, r, err, "draft not found")
		return
	}
	writeJSON(w, r, http.StatusOK, draftToResponse(d))
}

func draftToResponse(d service.DraftSession) DraftResponse {
	return DraftResponse{
		ID:       d.ID,
		Step:     int(d.Step),
		StepName: d.Step.String(),
		Status:   d.Status,
		Draft: DraftFields{
			Title:       d.Draft.Title,
			Destination: d.Draft.Destination,
			StartDate:   d.Draft.StartDate,
			EndDate:     d.Draft.EndDate,
			Budget:      d.Draft.Budget,
			CoverImage:  d.Draft.CoverImage,
		},
		TripID:    d.TripID,
		LastError: d.LastError,
	}
}

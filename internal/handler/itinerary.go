package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/service"
)

// SectionResponse is one stop in an itinerary being edited.
type SectionResponse struct {
	ID          string            `json:"id"`
	City        string            `json:"city"`
	Description string            `json:"description,omitempty"`
	DateRange   string            `json:"date_range,omitempty"`
	Budget      domain.Money      `json:"budget"`
	Cost        domain.Money      `json:"cost"`
	Expanded    bool              `json:"expanded"`
	Items       []domain.Activity `json:"items"`
}

// ItineraryResponse is the wire form of an itinerary editing session.
type ItineraryResponse struct {
	SessionID      string                  `json:"session_id"`
	TripID         string                  `json:"trip_id"`
	Sections       []SectionResponse       `json:"sections"`
	TotalBudget    domain.Money            `json:"total_budget"`
	TotalCost      domain.Money            `json:"total_cost"`
	CostByCategory map[string]domain.Money `json:"cost_by_category"`
}

// CreatedResponse returns the id of a new section or item together with the
// session it was added to.
type CreatedResponse struct {
	ID        string            `json:"id"`
	Itinerary ItineraryResponse `json:"itinerary"`
}

// OpenItinerary handles POST /trips/{tripId}/itinerary.
func (s *Server) OpenItinerary(w http.ResponseWriter, r *http.Request) {
	it, err := s.itineraries.Open(r.Context(), currentUser(r), chi.URLParam(r, "tripId"))
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, r, http.StatusCreated, itineraryToResponse(it))
}

// GetItinerary handles GET /itineraries/{sessionId}.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	it, err := s.itineraries.Get(r.Context(), currentUser(r), chi.URLParam(r, "sessionId"))
	writeItinerary(w, r, it, err)
}

// CloseItinerary handles DELETE /itineraries/{sessionId}.
// Uncommitted edits are dropped.
func (s *Server) CloseItinerary(w http.ResponseWriter, r *http.Request) {
	if err := s.itineraries.Close(r.Context(), currentUser(r), chi.URLParam(r, "sessionId")); err != nil {
		writeServiceError(w, r, err, "itinerary not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommitItinerary handles POST /itineraries/{sessionId}/commit.
func (s *Server) CommitItinerary(w http.ResponseWriter, r *http.Request) {
	it, err := s.itineraries.Commit(r.Context(), currentUser(r), chi.URLParam(r, "sessionId"))
	writeItinerary(w, r, it, err)
}

// AddSection handles POST /itineraries/{sessionId}/sections.
func (s *Server) AddSection(w http.ResponseWriter, r *http.Request) {
	id, it, err := s.itineraries.AddSection(r.Context(), currentUser(r), chi.URLParam(r, "sessionId"))
	writeCreated(w, r, id, it, err)
}

// UpdateSection handles PATCH /itineraries/{sessionId}/sections/{sectionId}.
func (s *Server) UpdateSection(w http.ResponseWriter, r *http.Request) {
	values, err := decodeFields(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	it, err := s.itineraries.UpdateSection(r.Context(), currentUser(r),
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "sectionId"), values)
	writeItinerary(w, r, it, err)
}

// RemoveSection handles DELETE /itineraries/{sessionId}/sections/{sectionId}.
func (s *Server) RemoveSection(w http.ResponseWriter, r *http.Request) {
	it, err := s.itineraries.RemoveSection(r.Context(), currentUser(r),
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "sectionId"))
	writeItinerary(w, r, it, err)
}

// ToggleSection handles POST /itineraries/{sessionId}/sections/{sectionId}/toggle.
func (s *Server) ToggleSection(w http.ResponseWriter, r *http.Request) {
	it, err := s.itineraries.ToggleSection(r.Context(), currentUser(r),
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "sectionId"))
	writeItinerary(w, r, it, err)
}

// AddItem handles POST /itineraries/{sessionId}/sections/{sectionId}/items.
func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	id, it, err := s.itineraries.AddItem(r.Context(), currentUser(r),
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "sectionId"))
	writeCreated(w, r, id, it, err)
}

// UpdateItem handles PATCH .../sections/{sectionId}/items/{itemId}.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	values, err := decodeFields(r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	it, err := s.itineraries.UpdateItem(r.Context(), currentUser(r),
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "sectionId"), chi.URLParam(r, "itemId"), values)
	writeItinerary(w, r, it, err)
}

// RemoveItem handles DELETE .../sections/{sectionId}/items/{itemId}.
func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.itineraries.RemoveItem(r.Context(), currentUser(r),
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "sectionId"), chi.URLParam(r, "itemId"))
	writeItinerary(w, r, it, err)
}

func writeItinerary(w http.ResponseWriter, r *http.Request, it service.Itinerary, err error) {
	if err != nil {
		writeServiceError(w, r, err, "itinerary not found")
		return
	}
	writeJSON(w, r, http.StatusOK, itineraryToResponse(it))
}

func writeCreated(w http.ResponseWriter, r *http.Request, id string, it service.Itinerary, err error) {
	if err != nil {
		writeServiceError(w, r, err, "itinerary not found")
		return
	}
	writeJSON(w, r, http.StatusCreated, CreatedResponse{ID: id, Itinerary: itineraryToResponse(it)})
}

func itineraryToResponse(it service.Itinerary) ItineraryResponse {
	sections := make([]SectionResponse, len(it.Sections))
	for i, sec := range it.Sections {
		items := sec.Stop.Activities
		if items == nil {
			items = []domain.Activity{}
		}
		sections[i] = SectionResponse{
			ID:          sec.Stop.ID,
			City:        sec.Stop.City,
			Description: sec.Stop.Description,
			DateRange:   sec.Stop.DateRange,
			Budget:      sec.Stop.Budget,
			Cost:        sec.Stop.Cost(),
			Expanded:    sec.Expanded,
			Items:       items,
		}
	}

	byCategory := make(map[string]domain.Money, len(it.CostByCategory))
	for c, m := range it.CostByCategory {
		byCategory[string(c)] = m
	}
	return ItineraryResponse{
		SessionID:      it.SessionID,
		TripID:         it.TripID,
		Sections:       sections,
		TotalBudget:    it.TotalBudget,
		TotalCost:      it.TotalCost,
		CostByCategory: byCategory,
	}
}

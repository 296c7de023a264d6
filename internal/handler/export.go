package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "destination", "trip_start_date", "trip_end_date",
	"stop_index", "stop_city", "stop_date_range", "stop_budget",
	"activity_title", "activity_category", "activity_cost",
}

// ExportRow is one row of the JSON export. Stop and activity fields are
// omitted when the row has no stop or no activity.
type ExportRow struct {
	TripID           string             `json:"trip_id"`
	TripTitle        string             `json:"trip_title"`
	Destination      string             `json:"destination"`
	TripStartDate    openapi_types.Date `json:"trip_start_date"`
	TripEndDate      openapi_types.Date `json:"trip_end_date"`
	StopIndex        *int               `json:"stop_index,omitempty"`
	StopCity         *string            `json:"stop_city,omitempty"`
	StopDateRange    *string            `json:"stop_date_range,omitempty"`
	StopBudget       *domain.Money      `json:"stop_budget,omitempty"`
	ActivityTitle    *string            `json:"activity_title,omitempty"`
	ActivityCategory *domain.Category   `json:"activity_category,omitempty"`
	ActivityCost     *domain.Money      `json:"activity_cost,omitempty"`
}

// ExportTrip handles GET /trips/{tripId}/export.
// It returns the trip flattened to one row per activity.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeServiceError(w, r, domain.NewValidationError("format", "format must be json or csv"), "")
		return
	}

	tripID := chi.URLParam(r, "tripId")
	rows, err := s.trips.Export(r.Context(), currentUser(r), tripID)
	if err != nil {
		writeServiceError(w, r, err, "trip not found")
		return
	}

	if format == "csv" {
		buf := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trip-`+tripID+`.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
		return
	}
	writeJSON(w, r, http.StatusOK, buildJSONRows(rows))
}

// buildJSONRows converts domain rows to the wire rows.
func buildJSONRows(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainRowToWireRow(r))
	}
	return out
}

// buildCSV encodes domain rows as CSV with a header row.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(domainRowToCSVRecord(r))
	}
	w.Flush()
	return &buf
}

func domainRowToWireRow(r domain.ExportRow) ExportRow {
	row := ExportRow{
		TripID:        r.TripID,
		TripTitle:     r.TripTitle,
		Destination:   r.Destination,
		TripStartDate: mustParseDate(r.TripStartDate),
		TripEndDate:   mustParseDate(r.TripEndDate),
	}
	if r.StopIndex > 0 {
		row.StopIndex = &r.StopIndex
		row.StopCity = &r.StopCity
		row.StopDateRange = &r.StopDateRange
		row.StopBudget = &r.StopBudget
	}
	if r.ActivityCategory != "" {
		row.ActivityTitle = &r.ActivityTitle
		row.ActivityCategory = &r.ActivityCategory
		row.ActivityCost = &r.ActivityCost
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Absent stop and activity columns are empty.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	rec := []string{
		r.TripID,
		r.TripTitle,
		r.Destination,
		r.TripStartDate,
		r.TripEndDate,
		"", "", "", "",
		"", "", "",
	}
	if r.StopIndex > 0 {
		rec[5] = strconv.Itoa(r.StopIndex)
		rec[6] = r.StopCity
		rec[7] = r.StopDateRange
		rec[8] = strconv.FormatInt(r.StopBudget, 10)
	}
	if r.ActivityCategory != "" {
		rec[9] = r.ActivityTitle
		rec[10] = string(r.ActivityCategory)
		rec[11] = strconv.FormatInt(r.ActivityCost, 10)
	}
	return rec
}

// mustParseDate parses an "2006-01-02" string into an openapi_types.Date.
// Panics on malformed input; callers are expected to pass service-generated dates.
func mustParseDate(s string) openapi_types.Date {
	t, err := time.Parse(openapi_types.DateFormat, s)
	if err != nil {
		panic("handler: malformed date from service: " + s)
	}
	return openapi_types.Date{Time: t}
}

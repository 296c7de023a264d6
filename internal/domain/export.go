package domain

// ExportRow is a single row in a trip's itinerary export.
// It is a flat, denormalized view: one row per activity, with trip and stop
// fields repeated for every activity. A stop with no activities yields one row
// with zero values for the activity fields; a trip with no stops yields one
// row with zero values for both stop and activity fields.
type ExportRow struct {
	// Trip fields, repeated for every row.
	TripID        string
	TripTitle     string
	Destination   string
	TripStartDate string // "2006-01-02" formatted date
	TripEndDate   string // "2006-01-02" formatted date

	// Stop fields: zero values when the trip has no stops.
	StopIndex     int // 1-based position in travel order; 0 when absent
	StopCity      string
	StopDateRange string
	StopBudget    Money

	// Activity fields: zero values when the stop has no activities.
	ActivityTitle    string
	ActivityCategory Category
	ActivityCost     Money
}

// ExportTrip flattens a trip into export rows in travel order.
func ExportTrip(t Trip) []ExportRow {
	base := ExportRow{
		TripID:        t.ID,
		TripTitle:     t.Title,
		Destination:   t.Destination,
		TripStartDate: t.StartDate.Format("2006-01-02"),
		TripEndDate:   t.EndDate.Format("2006-01-02"),
	}
	if len(t.Stops) == 0 {
		return []ExportRow{base}
	}

	var rows []ExportRow
	for i, s := range t.Stops {
		stopRow := base
		stopRow.StopIndex = i + 1
		stopRow.StopCity = s.City
		stopRow.StopDateRange = s.DateRange
		stopRow.StopBudget = s.Budget
		if len(s.Activities) == 0 {
			rows = append(rows, stopRow)
			continue
		}
		for _, a := range s.Activities {
			r := stopRow
			r.ActivityTitle = a.Title
			r.ActivityCategory = a.Category
			r.ActivityCost = a.Cost
			rows = append(rows, r)
		}
	}
	return rows
}

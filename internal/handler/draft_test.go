package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/handler"
	"github.com/pkordes/globe-trotter/internal/service"
	"github.com/pkordes/globe-trotter/internal/wizard"
)

// mockDraftServicer is a test double for handler.DraftServicer.
type mockDraftServicer struct {
	start            func(ctx context.Context, user *domain.User) (service.DraftSession, error)
	get              func(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	setFields        func(ctx context.Context, user *domain.User, id string, values map[string]string) (service.DraftSession, error)
	chooseSuggestion func(ctx context.Context, user *domain.User, id, city string) (service.DraftSession, error)
	next             func(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	back             func(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	submit           func(ctx context.Context, user *domain.User, id string) (service.DraftSession, error)
	discard          func(ctx context.Context, user *domain.User, id string) error
}

func (m *mockDraftServicer) Start(ctx context.Context, u *domain.User) (service.DraftSession, error) {
	return m.start(ctx, u)
}
func (m *mockDraftServicer) Get(ctx context.Context, u *domain.User, id string) (service.DraftSession, error) {
	return m.get(ctx, u, id)
}
func (m *mockDraftServicer) SetFields(ctx context.Context, u *domain.User, id string, values map[string]string) (service.DraftSession, error) {
	return m.setFields(ctx, u, id, values)
}
func (m *mockDraftServicer) ChooseSuggestion(ctx context.Context, u *domain.User, id, city string) (service.DraftSession, error) {
	return m.chooseSuggestion(ctx, u, id, city)
}
func (m *mockDraftServicer) Next(ctx context.Context, u *domain.User, id string) (service.DraftSession, error) {
	return m.next(ctx, u, id)
}
func (m *mockDraftServicer) Back(ctx context.Context, u *domain.User, id string) (service.DraftSession, error) {
	return m.back(ctx, u, id)
}
func (m *mockDraftServicer) Submit(ctx context.Context, u *domain.User, id string) (service.DraftSession, error) {
	return m.submit(ctx, u, id)
}
func (m *mockDraftServicer) Discard(ctx context.Context, u *domain.User, id string) error {
	return m.discard(ctx, u, id)
}

// compile-time check: mockDraftServicer must satisfy handler.DraftServicer.
var _ handler.DraftServicer = (*mockDraftServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func draftFixture() service.DraftSession {
	return service.DraftSession{
		ID: "d1",
		View: wizard.View{
			Step:   wizard.StepTimeline,
			Status: wizard.StatusEditing,
			Draft: wizard.Draft{
				Destination: "Tokyo, Japan",
				StartDate:   "2099-04-01",
				Budget:      2500,
				CoverImage:  "https://example.com/tokyo.jpg",
			},
		},
	}
}

func serveDraft(svc handler.DraftServicer, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	newHTTPHandler(nil, svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func decodeDraft(t *testing.T, rec *httptest.ResponseRecorder) handler.DraftResponse {
	t.Helper()
	var resp handler.DraftResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// ---- GET /suggestions ------------------------------------------------------

func TestListSuggestions_200(t *testing.T) {
	rec := serveDraft(nil, http.MethodGet, "/suggestions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.SuggestionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Destinations, len(wizard.Suggestions()))
	assert.Equal(t, "Tokyo", resp.Destinations[0].City)
	assert.Equal(t, "Tokyo, Japan", resp.Destinations[0].Destination)
	assert.Equal(t, wizard.BudgetPresets(), resp.BudgetPresets)
}

// ---- POST /drafts ----------------------------------------------------------

func TestStartDraft_201(t *testing.T) {
	svc := &mockDraftServicer{
		start: func(_ context.Context, u *domain.User) (service.DraftSession, error) {
			assert.Equal(t, "alice", u.UID)
			return service.DraftSession{ID: "d1", View: wizard.View{Step: wizard.StepDestination, Status: wizard.StatusEditing}}, nil
		},
	}

	rec := serveDraft(svc, http.MethodPost, "/drafts", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeDraft(t, rec)
	assert.Equal(t, "d1", resp.ID)
	assert.Equal(t, 1, resp.Step)
	assert.Equal(t, "destination", resp.StepName)
	assert.Equal(t, wizard.StatusEditing, resp.Status)
}

// ---- GET /drafts/{draftId} -------------------------------------------------

func TestGetDraft_200(t *testing.T) {
	svc := &mockDraftServicer{
		get: func(_ context.Context, _ *domain.User, id string) (service.DraftSession, error) {
			assert.Equal(t, "d1", id)
			return draftFixture(), nil
		},
	}

	rec := serveDraft(svc, http.MethodGet, "/drafts/d1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeDraft(t, rec)
	assert.Equal(t, "timeline", resp.StepName)
	assert.Equal(t, "Tokyo, Japan", resp.Draft.Destination)
	assert.Equal(t, domain.Money(2500), resp.Draft.Budget)
	assert.Empty(t, resp.TripID)
}

func TestGetDraft_404(t *testing.T) {
	svc := &mockDraftServicer{
		get: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			return service.DraftSession{}, domain.ErrNotFound
		},
	}

	rec := serveDraft(svc, http.MethodGet, "/drafts/gone", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "draft not found", decodeError(t, rec).Message)
}

// ---- PATCH /drafts/{draftId} -----------------------------------------------

func TestUpdateDraft_PassesFieldsAsText(t *testing.T) {
	var got map[string]string
	svc := &mockDraftServicer{
		setFields: func(_ context.Context, _ *domain.User, _ string, values map[string]string) (service.DraftSession, error) {
			got = values
			return draftFixture(), nil
		},
	}

	rec := serveDraft(svc, http.MethodPatch, "/drafts/d1", `{"destination":"Tokyo, Japan","budget":2500,"cover_image":null}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"destination": "Tokyo, Japan",
		"budget":      "2500",
		"cover_image": "",
	}, got)
}

func TestUpdateDraft_422_NonScalarValue(t *testing.T) {
	svc := &mockDraftServicer{
		setFields: func(context.Context, *domain.User, string, map[string]string) (service.DraftSession, error) {
			t.Fatal("service must not be called")
			return service.DraftSession{}, nil
		},
	}

	rec := serveDraft(svc, http.MethodPatch, "/drafts/d1", `{"budget":[1,2]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "budget", decodeError(t, rec).Field)
}

func TestUpdateDraft_422_UnknownField(t *testing.T) {
	svc := &mockDraftServicer{
		setFields: func(context.Context, *domain.User, string, map[string]string) (service.DraftSession, error) {
			return service.DraftSession{}, domain.NewValidationError("colour", "unknown field")
		},
	}

	rec := serveDraft(svc, http.MethodPatch, "/drafts/d1", `{"colour":"red"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "colour", decodeError(t, rec).Field)
}

// ---- step navigation -------------------------------------------------------

func TestChooseSuggestion_200(t *testing.T) {
	svc := &mockDraftServicer{
		chooseSuggestion: func(_ context.Context, _ *domain.User, id, city string) (service.DraftSession, error) {
			assert.Equal(t, "d1", id)
			assert.Equal(t, "Tokyo", city)
			return draftFixture(), nil
		},
	}

	rec := serveDraft(svc, http.MethodPost, "/drafts/d1/suggestion", `{"city":"Tokyo"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNextAndBack_200(t *testing.T) {
	calls := []string{}
	svc := &mockDraftServicer{
		next: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			calls = append(calls, "next")
			return draftFixture(), nil
		},
		back: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			calls = append(calls, "back")
			return draftFixture(), nil
		},
	}

	assert.Equal(t, http.StatusOK, serveDraft(svc, http.MethodPost, "/drafts/d1/next", "").Code)
	assert.Equal(t, http.StatusOK, serveDraft(svc, http.MethodPost, "/drafts/d1/back", "").Code)
	assert.Equal(t, []string{"next", "back"}, calls)
}

// ---- POST /drafts/{draftId}/submit -----------------------------------------

func TestSubmitDraft_200_ReturnsTripID(t *testing.T) {
	svc := &mockDraftServicer{
		submit: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			d := draftFixture()
			d.Status, d.TripID = wizard.StatusDone, "trip-9"
			return d, nil
		},
	}

	rec := serveDraft(svc, http.MethodPost, "/drafts/d1/submit", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeDraft(t, rec)
	assert.Equal(t, wizard.StatusDone, resp.Status)
	assert.Equal(t, "trip-9", resp.TripID)
}

func TestSubmitDraft_422_Validation(t *testing.T) {
	svc := &mockDraftServicer{
		submit: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			return draftFixture(), domain.NewValidationError("end_date", "end date is required")
		},
	}

	rec := serveDraft(svc, http.MethodPost, "/drafts/d1/submit", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "end_date", decodeError(t, rec).Field)
}

func TestSubmitDraft_503_KeepsDraftInBody(t *testing.T) {
	svc := &mockDraftServicer{
		submit: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			d := draftFixture()
			d.Status, d.LastError = wizard.StatusFailed, "store unavailable"
			return d, domain.ErrStoreUnavailable
		},
	}

	rec := serveDraft(svc, http.MethodPost, "/drafts/d1/submit", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeDraft(t, rec)
	assert.Equal(t, wizard.StatusFailed, resp.Status)
	assert.Equal(t, "store unavailable", resp.LastError)
	assert.Equal(t, "Tokyo, Japan", resp.Draft.Destination, "entered values survive a failed submit")
}

func TestSubmitDraft_409_InProgress(t *testing.T) {
	svc := &mockDraftServicer{
		submit: func(context.Context, *domain.User, string) (service.DraftSession, error) {
			return draftFixture(), domain.ErrSubmitInProgress
		},
	}

	rec := serveDraft(svc, http.MethodPost, "/drafts/d1/submit", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ---- DELETE /drafts/{draftId} ----------------------------------------------

func TestDiscardDraft_204(t *testing.T) {
	svc := &mockDraftServicer{
		discard: func(_ context.Context, _ *domain.User, id string) error {
			assert.Equal(t, "d1", id)
			return nil
		},
	}

	rec := serveDraft(svc, http.MethodDelete, "/drafts/d1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

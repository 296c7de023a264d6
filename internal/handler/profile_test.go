package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/handler"
	"github.com/pkordes/globe-trotter/internal/service"
)

// mockProfileServicer is a test double for handler.ProfileServicer.
type mockProfileServicer struct {
	get    func(ctx context.Context, user *domain.User) (service.ProfileView, error)
	update func(ctx context.Context, user *domain.User, patch domain.ProfilePatch) (service.ProfileView, error)
}

func (m *mockProfileServicer) Get(ctx context.Context, u *domain.User) (service.ProfileView, error) {
	return m.get(ctx, u)
}
func (m *mockProfileServicer) Update(ctx context.Context, u *domain.User, patch domain.ProfilePatch) (service.ProfileView, error) {
	return m.update(ctx, u, patch)
}

var _ handler.ProfileServicer = (*mockProfileServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newProfileHTTPHandler(svc handler.ProfileServicer) http.Handler {
	return handler.NewServer(nil, nil, nil, nil).WithProfiles(svc).Routes(asUser(alice))
}

func profileFixture() service.ProfileView {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return service.ProfileView{
		Profile: domain.Profile{
			UID:         "alice",
			Email:       "alice@example.com",
			DisplayName: "Alice",
			CreatedAt:   at,
			UpdatedAt:   at,
		},
		Stats: domain.ProfileStats{Trips: 3, Destinations: 2, Rank: domain.RankVanguard},
	}
}

// ---- tests -----------------------------------------------------------------

func TestGetProfile_200(t *testing.T) {
	var gotUser *domain.User
	svc := &mockProfileServicer{
		get: func(_ context.Context, u *domain.User) (service.ProfileView, error) {
			gotUser = u
			return profileFixture(), nil
		},
	}

	rec := httptest.NewRecorder()
	newProfileHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice, gotUser)

	var resp handler.ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.UID)
	assert.Equal(t, "Alice", resp.DisplayName)
	assert.Equal(t, domain.ProfileStats{Trips: 3, Destinations: 2, Rank: domain.RankVanguard}, resp.Stats)
}

func TestGetProfile_503_StoreDown(t *testing.T) {
	svc := &mockProfileServicer{
		get: func(context.Context, *domain.User) (service.ProfileView, error) {
			return service.ProfileView{}, domain.ErrStoreUnavailable
		},
	}

	rec := httptest.NewRecorder()
	newProfileHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpdateProfile_200_PassesOnlySentFields(t *testing.T) {
	var got domain.ProfilePatch
	svc := &mockProfileServicer{
		update: func(_ context.Context, _ *domain.User, patch domain.ProfilePatch) (service.ProfileView, error) {
			got = patch
			v := profileFixture()
			v.Profile.DisplayName = *patch.DisplayName
			return v, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/me", strings.NewReader(`{"display_name":"Ali"}`))
	newProfileHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.DisplayName)
	assert.Equal(t, "Ali", *got.DisplayName)
	assert.Nil(t, got.PhotoURL)

	var resp handler.ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Ali", resp.DisplayName)
}

func TestUpdateProfile_422(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		serviceFn func(context.Context, *domain.User, domain.ProfilePatch) (service.ProfileView, error)
		wantField string
	}{
		{
			name: "unknown field",
			body: `{"email":"x@example.com"}`,
		},
		{
			name: "blank display name",
			body: `{"display_name":"  "}`,
			serviceFn: func(context.Context, *domain.User, domain.ProfilePatch) (service.ProfileView, error) {
				return service.ProfileView{}, domain.NewValidationError("display_name", "display name must not be blank")
			},
			wantField: "display_name",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockProfileServicer{update: tc.serviceFn}

			rec := httptest.NewRecorder()
			newProfileHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/me", strings.NewReader(tc.body)))

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			var resp handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "validation_error", resp.Error.Code)
			assert.Equal(t, tc.wantField, resp.Error.Field)
		})
	}
}

func TestProfileRoutes_AbsentWithoutProfileService(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.NewServer(nil, nil, nil, nil).Routes(asUser(alice)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

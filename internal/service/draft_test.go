package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/service"
	"github.com/pkordes/globe-trotter/internal/wizard"
)

func newDraftService(store *mockTripStore) *service.DraftService {
	svc := service.NewDraftService(store, time.Hour)
	service.SetDraftClock(svc, func() time.Time { return fixedNow })
	return svc
}

func TestDraftService_StartAndGet(t *testing.T) {
	svc := newDraftService(&mockTripStore{})
	ctx := context.Background()

	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, wizard.StepDestination, d.Step)
	assert.Equal(t, wizard.StatusEditing, d.Status)

	got, err := svc.Get(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDraftService_Start_NotAuthenticated(t *testing.T) {
	svc := newDraftService(&mockTripStore{})

	_, err := svc.Start(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestDraftService_OtherUsersDraftIsNotFound(t *testing.T) {
	svc := newDraftService(&mockTripStore{})
	ctx := context.Background()
	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Submit(ctx, bob, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDraftService_SetFields_AppliesBatch(t *testing.T) {
	svc := newDraftService(&mockTripStore{})
	ctx := context.Background()
	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)

	got, err := svc.SetFields(ctx, alice, d.ID, map[string]string{
		"cover_image": "https://example.com/mine.jpg",
		"destination": "Paris",
		"budget":      "2500",
	})

	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Draft.Destination)
	assert.Equal(t, domain.Money(2500), got.Draft.Budget)
	assert.Equal(t, "https://example.com/mine.jpg", got.Draft.CoverImage,
		"an explicit cover image beats the one picked from the destination")
}

func TestDraftService_SetFields_UnknownFieldRejectsBatch(t *testing.T) {
	svc := newDraftService(&mockTripStore{})
	ctx := context.Background()
	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)

	_, err = svc.SetFields(ctx, alice, d.ID, map[string]string{
		"title":    "Trip",
		"password": "x",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.Get(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Draft.Title, "nothing is applied when the batch is rejected")
}

func TestDraftService_ChooseSuggestion(t *testing.T) {
	svc := newDraftService(&mockTripStore{})
	ctx := context.Background()
	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)

	got, err := svc.ChooseSuggestion(ctx, alice, d.ID, "reykjavik")
	require.NoError(t, err)
	assert.Equal(t, "Reykjavik, Iceland", got.Draft.Destination)
	assert.Equal(t, "Reykjavik Adventure", got.Draft.Title)

	_, err = svc.ChooseSuggestion(ctx, alice, d.ID, "Atlantis")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDraftService_NavigateAndSubmit(t *testing.T) {
	var created domain.Trip
	calls := 0
	svc := newDraftService(&mockTripStore{
		create: func(_ context.Context, trip domain.Trip) (string, error) {
			calls++
			created = trip
			return "trip-9", nil
		},
	})
	ctx := context.Background()

	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)
	_, err = svc.SetFields(ctx, alice, d.ID, map[string]string{
		"destination": "Tokyo, Japan",
		"start_date":  "2026-11-01",
		"end_date":    "2026-11-10",
	})
	require.NoError(t, err)

	d, err = svc.Next(ctx, alice, d.ID)
	require.NoError(t, err)
	d, err = svc.Next(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepBudget, d.Step)

	d, err = svc.Back(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepTimeline, d.Step)

	_, err = svc.SetFields(ctx, alice, d.ID, map[string]string{"budget": "3000"})
	require.NoError(t, err)

	d, err = svc.Submit(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusDone, d.Status)
	assert.Equal(t, "trip-9", d.TripID)
	assert.Equal(t, fixedNow, created.CreatedAt)

	// Submitting again returns the same trip without a second write.
	d, err = svc.Submit(ctx, alice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "trip-9", d.TripID)
	assert.Equal(t, 1, calls)
}

func TestDraftService_Submit_StoreFailureKeepsDraft(t *testing.T) {
	svc := newDraftService(&mockTripStore{
		create: func(context.Context, domain.Trip) (string, error) {
			return "", errors.New("boom")
		},
	})
	ctx := context.Background()
	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)
	_, err = svc.SetFields(ctx, alice, d.ID, map[string]string{
		"destination": "Tokyo",
		"start_date":  "2026-11-01",
		"end_date":    "2026-11-10",
		"budget":      "3000",
	})
	require.NoError(t, err)

	d, err = svc.Submit(ctx, alice, d.ID)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, wizard.StatusFailed, d.Status)
	assert.Equal(t, "Tokyo", d.Draft.Destination)
	assert.NotEmpty(t, d.LastError)
}

func TestDraftService_Discard(t *testing.T) {
	svc := newDraftService(&mockTripStore{})
	ctx := context.Background()
	d, err := svc.Start(ctx, alice)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Discard(ctx, bob, d.ID), domain.ErrNotFound)
	require.NoError(t, svc.Discard(ctx, alice, d.ID))

	_, err = svc.Get(ctx, alice, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

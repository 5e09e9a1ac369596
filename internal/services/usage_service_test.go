package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUsage_RecordCreatesSubscriptionAndCounts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	user := createUser(t, db, "caller")
	endpoint := createEndpoint(t, db, "forecast")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		svc.UsageService.Record(ctx, db, UsageObservation{
			UserID:       user.ID,
			EndpointSlug: endpoint.Slug,
			Path:         "/api/v1/endpoints/forecast/access",
			Method:       http.MethodGet,
			StatusCode:   http.StatusOK,
			RawBody:      []byte(`[1,2]`),
			Query:        url.Values{"city": {"Almaty"}},
		})
	}

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ? AND endpoint_id = ?", user.ID, endpoint.ID).First(&sub).Error)
	assert.Equal(t, 2, sub.UsageCount)
	assert.False(t, sub.AccessedAt.IsZero())

	var usage models.Usage
	require.NoError(t, db.Where("subscription_id = ?", sub.ID).First(&usage).Error)
	assert.JSONEq(t, `{"_":[1,2]}`, string(usage.RequestBody))
	assert.JSONEq(t, `{"city":"Almaty"}`, string(usage.QueryParams))

	count, err := svc.UsageService.CountForUser(db, user.ID, UsageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)

	page, err := svc.UsageService.ListForUser(db, user.ID, UsageQuery{}, repositories.Page{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestUsage_RecordUnknownEndpointIsIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	user := createUser(t, db, "caller")

	svc.UsageService.Record(context.Background(), db, UsageObservation{
		UserID:       user.ID,
		EndpointSlug: "missing",
		Path:         "/nowhere",
		Method:       http.MethodGet,
		StatusCode:   http.StatusOK,
	})

	var n int64
	db.Model(&models.Subscription{}).Count(&n)
	assert.Zero(t, n)
}

func TestUsage_GetAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	user := createUser(t, db, "caller")
	endpoint := createEndpoint(t, db, "forecast")

	svc.UsageService.Record(context.Background(), db, UsageObservation{
		UserID: user.ID, EndpointSlug: endpoint.Slug, Method: http.MethodGet, StatusCode: http.StatusOK,
	})
	var usage models.Usage
	require.NoError(t, db.First(&usage).Error)

	_, err := svc.UsageService.Get(db, "not-a-uuid")
	requireHTTPCode(t, err, http.StatusNotFound)

	require.NoError(t, svc.UsageService.Delete(db, usage.ID))
	_, err = svc.UsageService.Get(db, usage.ID)
	requireHTTPCode(t, err, http.StatusNotFound)
}

func TestUsage_RecordRestoresDeletedSubscriptionByPath(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	user := createUser(t, db, "caller")
	endpoint := createEndpoint(t, db, "forecast")

	deletedAt := time.Now().UTC()
	old := &models.Subscription{UserID: user.ID, EndpointID: endpoint.ID}
	old.IsDeleted = true
	old.DeletedAt = &deletedAt
	require.NoError(t, db.Create(old).Error)

	// slug маршрута неизвестен, эндпоинт находится по url
	svc.UsageService.Record(context.Background(), db, UsageObservation{
		UserID:     user.ID,
		Path:       "/forecast",
		Method:     http.MethodGet,
		StatusCode: http.StatusOK,
	})

	var sub models.Subscription
	require.NoError(t, db.First(&sub, "id = ?", old.ID).Error)
	assert.False(t, sub.IsDeleted)
	assert.Equal(t, 1, sub.UsageCount)

	var n int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// failingIncrement - репозиторий подписок, у которого не проходит +1 к счетчику
type failingIncrement struct {
	repositories.SubscriptionRepository
}

func (failingIncrement) IncrementUsage(*gorm.DB, string, time.Time) error {
	return errors.New("disk full")
}

func TestUsage_RecordRollsBackWhenCounterFails(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "caller")
	endpoint := createEndpoint(t, db, "forecast")

	svc := NewUsageService(
		repositories.NewUsageRepository(),
		failingIncrement{repositories.NewSubscriptionRepository()},
		repositories.NewEndpointRepository(),
		metrics.New(),
		lifecycle.NewManager(),
	)
	svc.Record(context.Background(), db, UsageObservation{
		UserID: user.ID, EndpointSlug: endpoint.Slug, Method: http.MethodGet, StatusCode: http.StatusOK,
	})

	var usages int64
	require.NoError(t, db.Model(&models.Usage{}).Count(&usages).Error)
	assert.Zero(t, usages, "запись без +1 к счетчику не сохраняется")

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Zero(t, sub.UsageCount)
}

func TestUsage_CountForUserByEndpointAndDays(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	user := createUser(t, db, "caller")
	forecast := createEndpoint(t, db, "forecast")
	geocode := createEndpoint(t, db, "geocode")
	ctx := context.Background()

	usage := svc.UsageService.(*usageService)
	now := time.Now().UTC()
	record := func(at time.Time, slug string) {
		usage.now = func() time.Time { return at }
		usage.Record(ctx, db, UsageObservation{UserID: user.ID, EndpointSlug: slug, Method: http.MethodGet, StatusCode: http.StatusOK})
	}
	record(now.AddDate(0, 0, -40), forecast.Slug)
	record(now.AddDate(0, 0, -5), forecast.Slug)
	record(now.AddDate(0, 0, -1), forecast.Slug)
	record(now.AddDate(0, 0, -1), geocode.Slug)
	usage.now = func() time.Time { return now }

	count, err := svc.UsageService.CountForUser(db, user.ID, UsageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Count)
	assert.Empty(t, count.EndpointID)

	count, err = svc.UsageService.CountForUser(db, user.ID, UsageQuery{Endpoint: forecast.Slug})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)
	assert.Equal(t, forecast.ID, count.EndpointID)

	count, err = svc.UsageService.CountForUser(db, user.ID, UsageQuery{Endpoint: forecast.ID, Days: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Count)

	count, err = svc.UsageService.CountForUser(db, user.ID, UsageQuery{Days: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)

	_, err = svc.UsageService.CountForUser(db, user.ID, UsageQuery{Endpoint: "missing"})
	requireHTTPCode(t, err, http.StatusNotFound)

	_, err = svc.UsageService.CountForUser(db, user.ID, UsageQuery{Days: -1})
	requireHTTPCode(t, err, http.StatusBadRequest)
}

func TestUsage_ListFilters(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	forecast := createEndpoint(t, db, "forecast")
	geocode := createEndpoint(t, db, "geocode")
	ctx := context.Background()
	page := repositories.Page{Page: 1, PageSize: 10}

	record := func(user *models.User, slug string, status int) {
		svc.UsageService.Record(ctx, db, UsageObservation{UserID: user.ID, EndpointSlug: slug, Method: http.MethodGet, StatusCode: status})
	}
	record(alice, forecast.Slug, http.StatusOK)
	record(alice, forecast.Slug, http.StatusCreated)
	record(alice, geocode.Slug, http.StatusOK)
	record(bob, forecast.Slug, http.StatusOK)

	mine, err := svc.UsageService.ListForUser(db, alice.ID, UsageQuery{Endpoint: forecast.Slug}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	mine, err = svc.UsageService.ListForUser(db, alice.ID, UsageQuery{StatusCode: http.StatusCreated}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	// чужой username в пользовательском списке игнорируется
	mine, err = svc.UsageService.ListForUser(db, alice.ID, UsageQuery{Username: "bob"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)

	all, err := svc.UsageService.List(db, UsageQuery{Username: "BOB"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)

	all, err = svc.UsageService.List(db, UsageQuery{Endpoint: forecast.ID, StatusCode: http.StatusOK}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	_, err = svc.UsageService.List(db, UsageQuery{UserID: "not-a-uuid"}, page)
	requireHTTPCode(t, err, http.StatusNotFound)
}

func TestUsage_GetForUserHidesForeignRecords(t *testing.T) {
	db := newTestDB(t)
	svc := newTestContainer(t, nil)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	endpoint := createEndpoint(t, db, "forecast")

	svc.UsageService.Record(context.Background(), db, UsageObservation{
		UserID: alice.ID, EndpointSlug: endpoint.Slug, Method: http.MethodGet, StatusCode: http.StatusOK,
	})
	var usage models.Usage
	require.NoError(t, db.First(&usage).Error)

	own, err := svc.UsageService.GetForUser(db, alice.ID, usage.ID)
	require.NoError(t, err)
	assert.Equal(t, usage.ID, own.ID)

	_, err = svc.UsageService.GetForUser(db, bob.ID, usage.ID)
	requireHTTPCode(t, err, http.StatusNotFound)
	_, err = svc.UsageService.GetForUser(db, alice.ID, "not-a-uuid")
	requireHTTPCode(t, err, http.StatusNotFound)
}

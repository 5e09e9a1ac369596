package lifecycle_test

import (
	"path/filepath"
	"testing"

	"apimarket_backend/internal/database"
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	category *models.Category
	endpoint *models.Endpoint
	example  *models.Example
	sub      *models.Subscription
	usage    *models.Usage
}

func setup(t *testing.T) (*gorm.DB, *lifecycle.Manager, fixture) {
	t.Helper()
	db, err := database.Open("sqlite://"+filepath.Join(t.TempDir(), "lifecycle.db"), false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	m := lifecycle.NewManager()
	repositories.RegisterCascades(m)

	user := &models.User{Username: "u", Email: "u@test.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	f := fixture{category: &models.Category{Name: "Weather", Slug: "weather"}}
	require.NoError(t, db.Create(f.category).Error)
	f.endpoint = &models.Endpoint{CategoryID: f.category.ID, Name: "Forecast", Slug: "forecast", Method: models.HTTPMethodGet, URL: "https://x"}
	require.NoError(t, db.Create(f.endpoint).Error)
	f.example = &models.Example{EndpointID: f.endpoint.ID, Language: "go", RequestType: "GET", CodeSnippet: "http.Get(url)"}
	require.NoError(t, db.Create(f.example).Error)
	f.sub = &models.Subscription{UserID: user.ID, EndpointID: f.endpoint.ID}
	require.NoError(t, db.Create(f.sub).Error)
	f.usage = &models.Usage{SubscriptionID: f.sub.ID, StatusCode: 200, Method: "GET"}
	require.NoError(t, db.Create(f.usage).Error)
	return db, m, f
}

func isDeleted(t *testing.T, db *gorm.DB, table, id string) bool {
	t.Helper()
	var row struct{ IsDeleted bool }
	require.NoError(t, db.Table(table).Select("is_deleted").Where("id = ?", id).Take(&row).Error)
	return row.IsDeleted
}

func exists(db *gorm.DB, table, id string) bool {
	var n int64
	db.Table(table).Where("id = ?", id).Count(&n)
	return n > 0
}

func TestDelete_CascadesToAllDescendants(t *testing.T) {
	db, m, f := setup(t)

	require.NoError(t, m.Delete(db, f.category))
	assert.True(t, f.category.IsDeleted)
	assert.NotNil(t, f.category.DeletedAt)

	assert.True(t, isDeleted(t, db, "categories", f.category.ID))
	assert.True(t, isDeleted(t, db, "endpoints", f.endpoint.ID))
	assert.True(t, isDeleted(t, db, "examples", f.example.ID))
	assert.True(t, isDeleted(t, db, models.Subscription{}.TableName(), f.sub.ID))
	assert.True(t, isDeleted(t, db, models.Usage{}.TableName(), f.usage.ID))
}

func TestDelete_Idempotent(t *testing.T) {
	db, m, f := setup(t)

	require.NoError(t, m.Delete(db, f.example))
	first := *f.example.DeletedAt

	require.NoError(t, m.Delete(db, f.example))
	assert.Equal(t, first, *f.example.DeletedAt, "повторное удаление не меняет deleted_at")
}

func TestRestore_DoesNotTouchChildren(t *testing.T) {
	db, m, f := setup(t)
	require.NoError(t, m.Delete(db, f.endpoint))

	var endpoint models.Endpoint
	require.NoError(t, db.First(&endpoint, "id = ?", f.endpoint.ID).Error)
	require.NoError(t, m.Restore(db, &endpoint))
	assert.False(t, endpoint.IsDeleted)
	assert.Nil(t, endpoint.DeletedAt)

	assert.False(t, isDeleted(t, db, "endpoints", f.endpoint.ID))
	assert.True(t, isDeleted(t, db, "examples", f.example.ID))

	// восстановление живой сущности ничего не делает
	require.NoError(t, m.Restore(db, &endpoint))
}

func TestHardDelete_RemovesDeletedAndLiveDescendants(t *testing.T) {
	db, m, f := setup(t)
	require.NoError(t, m.Delete(db, f.example))

	require.NoError(t, m.HardDelete(db, f.category))

	assert.False(t, exists(db, "categories", f.category.ID))
	assert.False(t, exists(db, "endpoints", f.endpoint.ID))
	assert.False(t, exists(db, "examples", f.example.ID))
	assert.False(t, exists(db, models.Subscription{}.TableName(), f.sub.ID))
	assert.False(t, exists(db, models.Usage{}.TableName(), f.usage.ID))
}

func TestScope(t *testing.T) {
	db, m, f := setup(t)
	require.NoError(t, m.Delete(db, f.example))

	var live, all, trash int64
	db.Model(&models.Example{}).Scopes(lifecycle.Scope(false)).Count(&live)
	db.Model(&models.Example{}).Scopes(lifecycle.Scope(true)).Count(&all)
	db.Model(&models.Example{}).Scopes(lifecycle.OnlyDeleted).Count(&trash)

	assert.Equal(t, int64(0), live)
	assert.Equal(t, int64(1), all)
	assert.Equal(t, int64(1), trash)
}

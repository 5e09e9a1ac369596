package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"apimarket_backend/internal/models"
	"apimarket_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingUsage struct {
	observed []services.UsageObservation
}

func (r *recordingUsage) Record(_ context.Context, _ *gorm.DB, obs services.UsageObservation) {
	r.observed = append(r.observed, obs)
}

// newUsageRouter: ?status=<code> задает ответ хэндлера, user == nil - анонимный запрос
func newUsageRouter(rec services.UsageRecorder, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/endpoints/:slug/access",
		func(c *gin.Context) {
			if user != nil {
				setUser(c, user)
			}
		},
		TrackUsage(rec, "slug"),
		func(c *gin.Context) {
			body, _ := io.ReadAll(c.Request.Body)
			status, err := strconv.Atoi(c.DefaultQuery("status", "200"))
			if err != nil {
				status = http.StatusOK
			}
			c.String(status, string(body))
		},
	)
	return router
}

func postAccess(router *gin.Engine, query, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/endpoints/forecast/access"+query, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTrackUsage_RecordsSuccessfulCalls(t *testing.T) {
	rec := &recordingUsage{}
	user := &models.User{BaseModel: models.BaseModel{ID: "u1"}, IsActive: true}
	router := newUsageRouter(rec, user)

	w := postAccess(router, "?city=Almaty", `{"units":"metric"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"units":"metric"}`, w.Body.String(), "тело запроса доступно хэндлеру")

	require.Len(t, rec.observed, 1)
	obs := rec.observed[0]
	assert.Equal(t, "u1", obs.UserID)
	assert.Equal(t, "forecast", obs.EndpointSlug)
	assert.Equal(t, "/endpoints/forecast/access", obs.Path)
	assert.Equal(t, http.MethodPost, obs.Method)
	assert.Equal(t, http.StatusOK, obs.StatusCode)
	assert.JSONEq(t, `{"units":"metric"}`, string(obs.RawBody))
	assert.Equal(t, "Almaty", obs.Query.Get("city"))
}

func TestTrackUsage_SkipsErrorResponses(t *testing.T) {
	rec := &recordingUsage{}
	user := &models.User{BaseModel: models.BaseModel{ID: "u1"}, IsActive: true}
	router := newUsageRouter(rec, user)

	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusInternalServerError} {
		w := postAccess(router, "?status="+strconv.Itoa(status), "")
		assert.Equal(t, status, w.Code)
	}
	assert.Empty(t, rec.observed)

	// 3xx ответы учитываются
	postAccess(router, "?status=302", "")
	require.Len(t, rec.observed, 1)
	assert.Equal(t, http.StatusFound, rec.observed[0].StatusCode)
}

func TestTrackUsage_SkipsAnonymousCallers(t *testing.T) {
	rec := &recordingUsage{}
	router := newUsageRouter(rec, nil)

	w := postAccess(router, "", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.observed)
}

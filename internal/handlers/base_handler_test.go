package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"apimarket_backend/internal/services"
	"apimarket_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestParsePagination(t *testing.T) {
	h := NewBaseHandler(validator.New(), PaginationConfig{DefaultPageSize: 10, MaxPageSize: 50})

	c, _ := newTestContext("/api/v1/endpoints")
	page := h.ParsePagination(c)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)

	c, _ = newTestContext("/api/v1/endpoints?page=-3&page_size=500")
	page = h.ParsePagination(c)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PageSize)

	c, _ = newTestContext("/api/v1/endpoints?page=abc&page_size=5")
	page = h.ParsePagination(c)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.PageSize)
}

func TestRespondPage_Links(t *testing.T) {
	c, w := newTestContext("/api/v1/endpoints?page=2&page_size=2&category=weather")
	c.Request.Host = "api.test"

	respondPage(c, &services.PageResult[string]{Items: []string{"c", "d"}, Total: 5, Page: 2, PageSize: 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pagination Pagination `json:"pagination"`
		Data       []string   `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"c", "d"}, resp.Data)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, int64(5), resp.Pagination.TotalItems)
	require.NotNil(t, resp.Pagination.Next)
	require.NotNil(t, resp.Pagination.Previous)
	assert.Equal(t, "http://api.test/api/v1/endpoints?category=weather&page=3&page_size=2", *resp.Pagination.Next)
	assert.Equal(t, "http://api.test/api/v1/endpoints?category=weather&page=1&page_size=2", *resp.Pagination.Previous)
}

func TestRespondPage_LastPageHasNoNext(t *testing.T) {
	c, w := newTestContext("/api/v1/categories")

	respondPage(c, &services.PageResult[string]{Items: []string{"a"}, Total: 1, Page: 1, PageSize: 10})

	var resp struct {
		Pagination Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Pagination.Next)
	assert.Nil(t, resp.Pagination.Previous)
}

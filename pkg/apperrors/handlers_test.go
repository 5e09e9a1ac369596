package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickMessage(t *testing.T) {
	cases := []struct {
		name string
		errs interface{}
		want string
	}{
		{"scalar string", "plan is not active", "plan is not active"},
		{"list", []interface{}{"first", "second"}, "first"},
		{"string list", []string{"only"}, "only"},
		{"mapping of lists", map[string][]string{"email": {"already taken", "too long"}, "username": {"required"}}, "already taken"},
		{"mapping of strings", map[string]string{"password": "too short", "email": "invalid"}, "invalid"},
		{"nested mapping", map[string]interface{}{"detail": []interface{}{"nested first"}}, "nested first"},
		{"empty list", []string{}, ""},
		{"nil", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PickMessage(tc.errs))
		})
	}
}

func TestHandleError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(err error) (int, ErrorResponse) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		HandleError(c, err)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	t.Run("validation keeps explicit message", func(t *testing.T) {
		code, body := run(ValidationError(map[string]string{"email": "Must be a valid email address"}))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, body.Success)
		assert.Equal(t, "Validation failed", body.Message)
		assert.NotNil(t, body.Errors)
	})

	t.Run("invalid input picks message from details", func(t *testing.T) {
		code, body := run(InvalidInput([]string{"This subscription plan is not active."}))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "This subscription plan is not active.", body.Message)
	})

	t.Run("permission and authentication are distinct", func(t *testing.T) {
		code, _ := run(ErrPermissionDenied)
		assert.Equal(t, http.StatusForbidden, code)
		code, _ = run(ErrAuthenticationRequired)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("gateway error surfaces provider message as 400", func(t *testing.T) {
		code, body := run(GatewayError("Razorpay", errors.New("bad key")))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Razorpay error: bad key", body.Message)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		code, body := run(errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Internal server error", body.Message)
	})
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	withDetails := ErrInvalidToken.WithDetails(map[string]string{"token": "expired"})
	assert.Nil(t, ErrInvalidToken.Details)
	assert.NotNil(t, withDetails.Details)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWithPagination(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, Limit: 50, TotalCount: 1, TotalPages: 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, pagination["total_count"])
}

func TestErrorHidesCause(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: password authentication failed for user postgres"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.Contains(t, w.Body.String(), appErrors.ErrInternal.Code)
}

func TestErrorKeepsTypedStatus(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Clone(appErrors.ErrConflict, "Username or email already exists"))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "Username or email already exists", body.Error.Message)
}

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todoapi/internal/apperr"
	"todoapi/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newEngine mounts validators in front of a handler that echoes what they stored.
func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), true))
	r.POST("/todos", ValidateCreate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, CreateInput(c))
	})
	r.PUT("/todos/:id", ValidateID(), ValidateUpdate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": ID(c), "input": UpdateInput(c)})
	})
	r.GET("/todos/:id", ValidateID(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": ID(c)})
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused"))
	})
	r.NoRoute(NotFound())
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestValidateCreate_Rejects(t *testing.T) {
	r := newEngine()
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty object", `{}`, msgTitleRequired},
		{"empty body", ``, msgTitleRequired},
		{"array body", `[1,2]`, msgTitleRequired},
		{"empty title", `{"title":""}`, msgTitleRequired},
		{"blank title", `{"title":"   "}`, msgTitleRequired},
		{"numeric title", `{"title":5}`, msgTitleRequired},
		{"too long", fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", 256)), msgTitleTooLong},
		{"description number", `{"title":"t","description":1}`, msgDescription},
		{"description null", `{"title":"t","description":null}`, msgDescription},
		{"completed string", `{"title":"t","completed":"yes"}`, msgCompleted},
		{"malformed", `{"title":`, msgInvalidJSON},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, out := do(t, r, http.MethodPost, "/todos", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Validation Error", out["error"])
			assert.Equal(t, tc.msg, out["message"])
			assert.Equal(t, false, out["success"])
		})
	}
}

func TestValidateCreate_TrimsAndAccepts255(t *testing.T) {
	r := newEngine()
	title := strings.Repeat("a", 255)

	w, out := do(t, r, http.MethodPost, "/todos",
		fmt.Sprintf(`{"title":"  %s","description":"  d  ","completed":true}`, title[:253]))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, title[:253], out["Title"])
	assert.Equal(t, "d", out["Description"])
	assert.Equal(t, true, out["Completed"])

	w, out = do(t, r, http.MethodPost, "/todos", fmt.Sprintf(`{"title":%q}`, title))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, title, out["Title"])
	assert.Nil(t, out["Description"])
	assert.Nil(t, out["Completed"])
}

func TestValidateUpdate(t *testing.T) {
	r := newEngine()

	w, out := do(t, r, http.MethodPut, "/todos/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNoUpdateFields, out["message"])

	w, out = do(t, r, http.MethodPut, "/todos/1", `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgTitleNonEmpty, out["message"])

	w, out = do(t, r, http.MethodPut, "/todos/1", `{"completed":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgCompleted, out["message"])

	w, out = do(t, r, http.MethodPut, "/todos/1", `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNoUpdateFields, out["message"])

	w, out = do(t, r, http.MethodPut, "/todos/12", `{"completed":false,"title":" x "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(12), out["id"])
	in := out["input"].(map[string]any)
	assert.Equal(t, "x", in["Title"])
	assert.Equal(t, false, in["Completed"])
	assert.Nil(t, in["Description"])
}

func TestUpdateInput_Patch(t *testing.T) {
	done := true
	p := dto.UpdateTodoInput{Completed: &done}.Patch()
	assert.Nil(t, p.Title)
	assert.Nil(t, p.Description)
	assert.Equal(t, &done, p.Completed)
}

func TestValidateID(t *testing.T) {
	r := newEngine()

	for _, bad := range []string{"invalid", "12abc", "1.5", "99999999999999999999"} {
		w, out := do(t, r, http.MethodGet, "/todos/"+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, "Validation Error", out["error"], bad)
		assert.Equal(t, msgInvalidID, out["message"], bad)
	}

	w, out := do(t, r, http.MethodGet, "/todos/-3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(-3), out["id"])
}

func TestNotFound(t *testing.T) {
	w, out := do(t, newEngine(), http.MethodGet, "/nope?x=1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", out["error"])
	assert.Equal(t, "Route /nope?x=1 not found", out["message"])
}

func TestErrorHandler_InternalDetails(t *testing.T) {
	w, out := do(t, newEngine(), http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", out["error"])
	assert.Equal(t, "connection refused", out["message"])

	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), false))
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("connection refused")) })
	w, out = do(t, r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went wrong", out["message"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		label  string
	}{
		{"validation", apperr.Validation("bad"), http.StatusBadRequest, "Validation Error"},
		{"not found", apperr.TodoNotFound(9, nil), http.StatusNotFound, "Todo not found"},
		{"not null", fmt.Errorf("create todo: %w", &pgconn.PgError{Code: "23502"}), http.StatusBadRequest, "Missing required field"},
		{"bad text", &pgconn.PgError{Code: "22P02"}, http.StatusBadRequest, "Invalid data type"},
		{"other pg", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := Classify(tc.err, false)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.label, body.Error)
			assert.False(t, body.Success)
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop(), false))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w, out := do(t, r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", out["error"])
	assert.Equal(t, "Something went wrong", out["message"])
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": RequestID(c)}) })

	w, out := do(t, r, http.MethodGet, "/", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), out["id"])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), true), BodyLimit(16))
	r.POST("/todos", ValidateCreate(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w, out := do(t, r, http.MethodPost, "/todos", fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", 64)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgBodyTooLarge, out["message"])
}

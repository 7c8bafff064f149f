package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery_TurnsPanicIntoLogged500(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logBuf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelError}))

	router := gin.New()
	router.Use(CorrelationID(), Recovery(log))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom goes the handler")
	})

	traceID := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(CorrelationIDHeader, traceID)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		CorrelationID string `json:"correlation_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.Equal(t, "An internal server error occurred", body.Error.Message)
	assert.Equal(t, traceID, body.CorrelationID)

	logged := logBuf.String()
	assert.Contains(t, logged, `"msg":"Panic recovered"`)
	assert.Contains(t, logged, `"error":"boom goes the handler"`)
	assert.Contains(t, logged, `"stack":`)
	assert.Contains(t, logged, `"path":"/boom"`)
	assert.Contains(t, logged, `"method":"GET"`)
}

func TestRecovery_LeavesHealthyRequestsAlone(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logBuf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logBuf, nil))

	router := gin.New()
	router.Use(Recovery(log))
	router.GET("/fine", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fine", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, logBuf.String())
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(nil))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetCorrelationID(c))
	})
	return r
}

func TestCorrelationID_Propagates(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")

	newEngine().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIDHeader))
}

func TestCorrelationID_GeneratedWhenMissingOrTooLong(t *testing.T) {
	for _, header := range []string{"", strings.Repeat("x", 200)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if header != "" {
			req.Header.Set(CorrelationIDHeader, header)
		}

		newEngine().ServeHTTP(w, req)

		id := w.Header().Get(CorrelationIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	}
}

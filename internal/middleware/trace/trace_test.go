package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "haushaltskasse/internal/log"
)

type observation struct {
	route, method string
	status        int
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveRequest(route, method string, status int, _ time.Duration) {
	o.seen = append(o.seen, observation{route, method, status})
}

func newRouter(t *testing.T, obs Observer, buf *bytes.Buffer) *mux.Router {
	t.Helper()
	logger := applog.New(applog.Config{Format: applog.FormatJSON, Output: buf})
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, obs, logger)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetRequestID(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodDelete)
	return r
}

func TestMiddlewareObservesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	var buf bytes.Buffer
	router := newRouter(t, obs, &buf)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/expenses/abc", nil))

	require.Len(t, obs.seen, 1)
	assert.Equal(t, observation{"/api/expenses/{id}", http.MethodDelete, http.StatusNotFound}, obs.seen[0])
	assert.True(t, strings.HasPrefix(rec.Header().Get(RequestIDHeader), "req_"))
	assert.Contains(t, buf.String(), `"route":"/api/expenses/{id}"`)
	assert.Contains(t, buf.String(), `"client_ip":"10.0.0.1"`)
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(t, nil, &buf)

	req := httptest.NewRequest(http.MethodDelete, "/api/expenses/abc", nil)
	req.Header.Set(RequestIDHeader, "req_given")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req_given", rec.Header().Get(RequestIDHeader))
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, rw.statusCode)
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("req_")+16)
}

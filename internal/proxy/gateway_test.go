package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TweetMood/internal/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, upstream string) *gin.Engine {
	t.Helper()
	g, err := New(upstream, Options{Metrics: monitoring.NewMetricsCollector("test")})
	require.NoError(t, err)

	r := gin.New()
	g.Register(r)
	return r
}

func TestRelaysUpstreamErrorVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"down"}`))
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	newRouter(t, upstream.URL).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, `{"message":"down"}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestForwardsQueryString(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/info", r.URL.Path)
		assert.Equal(t, "verbose=1&lang=fr", r.URL.RawQuery)
		w.Write([]byte(`{"tensorflow_version":"2.15.0"}`))
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	newRouter(t, upstream.URL).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/info?verbose=1&lang=fr", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tensorflow_version":"2.15.0"}`, w.Body.String())
}

func TestForwardsPostBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Proxy-Authorization"))
		assert.Equal(t, "kept", r.Header.Get("X-Custom"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"text":"I love this airline!"}`, string(body))
		w.Write([]byte(`{"sentiment":"Positif","confidence":0.93,"raw_score":4.12}`))
	}))
	defer upstream.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"text":"I love this airline!"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Proxy-Authorization", "secret")
	req.Header.Set("X-Custom", "kept")

	w := httptest.NewRecorder()
	newRouter(t, upstream.URL).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"sentiment":"Positif","confidence":0.93,"raw_score":4.12}`, w.Body.String())
}

func TestUnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	w := httptest.NewRecorder()
	newRouter(t, url).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":`)
}

func TestUpstreamBasePath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/predict-batch", r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"msg":"field required"}]}`))
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	newRouter(t, upstream.URL+"/v1/").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict-batch", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, `{"detail":[{"msg":"field required"}]}`, w.Body.String())
}

func TestNewRejectsBadUpstream(t *testing.T) {
	_, err := New("ftp://example.com", Options{})
	assert.Error(t, err)
}

package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TweetMood/internal/failure"
	"github.com/Alias1177/TweetMood/internal/monitoring"
)

// hopHeaders are connection scoped and never forwarded (RFC 7230 6.1)
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Gateway forwards every request under a prefix to the upstream prediction
// service and relays the answer unchanged
type Gateway struct {
	upstream *url.URL
	prefix   string
	client   *http.Client
	metrics  *monitoring.MetricsCollector
	logger   zerolog.Logger
}

// Options configures a Gateway
type Options struct {
	Prefix  string
	Timeout time.Duration
	Metrics *monitoring.MetricsCollector // optional
}

// New creates a gateway for the upstream base URL
func New(upstream string, opts Options) (*Gateway, error) {
	u, err := url.Parse(strings.TrimRight(upstream, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must be http or https", upstream)
	}
	if opts.Prefix == "" {
		opts.Prefix = "/api"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Gateway{
		upstream: u,
		prefix:   "/" + strings.Trim(opts.Prefix, "/"),
		client:   &http.Client{Timeout: opts.Timeout},
		metrics:  opts.Metrics,
		logger:   log.With().Str("component", "proxy").Logger(),
	}, nil
}

// Register mounts the gateway on r for every method
func (g *Gateway) Register(r gin.IRouter) {
	r.Any(g.prefix+"/*path", g.Forward)
}

// Forward relays the current request. Upstream non-2xx answers are passed
// through with their status and body; only an unreachable upstream produces a
// gateway-generated 500.
func (g *Gateway) Forward(c *gin.Context) {
	target := g.targetURL(c.Param("path"), c.Request.URL.RawQuery)

	var body io.Reader
	if c.Request.Body != nil && c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		body = c.Request.Body
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, body)
	if err != nil {
		g.fail(c, failure.NewTransport(err))
		return
	}
	if body != nil {
		req.ContentLength = c.Request.ContentLength
	}
	copyHeaders(req.Header, c.Request.Header)
	req.Header.Del("Host")
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.fail(c, err)
		return
	}
	defer resp.Body.Close()

	if g.metrics != nil {
		g.metrics.ObserveUpstream(c.Request.Method, resp.StatusCode, time.Since(start))
	}
	if resp.StatusCode >= 400 {
		g.logger.Debug().Int("status", resp.StatusCode).Str("target", target).Msg("Relaying upstream error")
	}

	copyHeaders(c.Writer.Header(), resp.Header)
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		g.logger.Warn().Err(err).Str("target", target).Msg("Error relaying upstream body")
	}
}

func (g *Gateway) targetURL(path, rawQuery string) string {
	u := *g.upstream
	u.Path = strings.TrimRight(g.upstream.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String()
}

func (g *Gateway) fail(c *gin.Context, err error) {
	perr := &failure.Error{Kind: failure.Proxy, Message: err.Error(), HTTPStatus: http.StatusInternalServerError, Err: err}
	g.logger.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Upstream unreachable")
	if g.metrics != nil {
		g.metrics.UpstreamFailed(c.Request.Method)
	}
	c.JSON(perr.HTTPStatus, gin.H{"error": perr.Message})
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		if isHopHeader(k) {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func isHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

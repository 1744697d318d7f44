package failure

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"validation direct", NewValidation("empty"), Validation, true},
		{"wrapped upstream", fmt.Errorf("predict: %w", NewUpstream(503, "down")), Upstream, true},
		{"kind mismatch", NewTransport(errors.New("refused")), Upstream, false},
		{"plain error", errors.New("boom"), Transport, false},
		{"nil", nil, Validation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Is(tt.err, tt.kind))
		})
	}
}

func TestNewUpstreamFallsBackToStatusText(t *testing.T) {
	err := NewUpstream(http.StatusBadGateway, "")
	assert.Equal(t, "Bad Gateway", err.Message)
	assert.Equal(t, http.StatusBadGateway, Status(err))
	assert.Contains(t, err.Error(), "status 502")
}

func TestTransportUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransport(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, Status(err))
}

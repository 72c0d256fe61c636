package bedrock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"throttling", errors.New("ThrottlingException: Rate exceeded"), true},
		{"service unavailable", errors.New("ServiceUnavailableException"), true},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"validation", errors.New("ValidationException: invalid model id"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	initial := 1 * time.Second
	max := 4 * time.Second

	for attempt := range 6 {
		delay := calculateBackoff(attempt, initial, max)
		assert.GreaterOrEqual(t, delay, time.Duration(0))
		assert.LessOrEqual(t, delay, max)
	}
}

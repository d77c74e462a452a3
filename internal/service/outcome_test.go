package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carintel/internal/apperr"
)

func TestAttempt(t *testing.T) {
	fallback := func(err error) string { return "fallback" }

	tests := []struct {
		name     string
		timeout  time.Duration
		call     func(ctx context.Context) (string, error)
		want     string
		degraded bool
		code     string
	}{
		{
			name: "success",
			call: func(ctx context.Context) (string, error) { return "ok", nil },
			want: "ok",
		},
		{
			name:     "plain error becomes service error",
			call:     func(ctx context.Context) (string, error) { return "", errors.New("quota exceeded") },
			want:     "fallback",
			degraded: true,
			code:     apperr.CodeServiceError,
		},
		{
			name:     "app error keeps its code",
			call:     func(ctx context.Context) (string, error) { return "", apperr.ParseError(nil, "bad json") },
			want:     "fallback",
			degraded: true,
			code:     apperr.CodeParseError,
		},
		{
			name:     "panic is recovered",
			call:     func(ctx context.Context) (string, error) { panic("boom") },
			want:     "fallback",
			degraded: true,
			code:     apperr.CodeServiceError,
		},
		{
			name:    "timeout",
			timeout: 10 * time.Millisecond,
			call: func(ctx context.Context) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			want:     "fallback",
			degraded: true,
			code:     apperr.CodeServiceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := attempt(context.Background(), testLogger(), "test", tt.timeout, fallback, tt.call)
			assert.Equal(t, tt.want, out.Value)
			assert.Equal(t, tt.degraded, out.Degraded)
			if tt.degraded {
				assert.Equal(t, tt.code, apperr.Code(out.Err))
			} else {
				assert.NoError(t, out.Err)
			}
		})
	}
}

func TestAttempt_TimeoutIsReported(t *testing.T) {
	out := attempt(context.Background(), testLogger(), "slow", 5*time.Millisecond,
		func(err error) int { return -1 },
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	)
	assert.True(t, out.Degraded)
	assert.Equal(t, -1, out.Value)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Contains(t, out.Err.Error(), "timed out")
}

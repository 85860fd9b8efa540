package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(context.Context) {
	r.calls.Add(1)
}

func TestNewRefreshScheduler_Validation(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		target      Refresher
		errContains string
	}{
		{name: "nil target", spec: "@every 1m", target: nil, errContains: "target is required"},
		{name: "garbage spec", spec: "whenever", target: &countingRefresher{}, errContains: "parsing refresh schedule"},
		{name: "empty spec", spec: "", target: &countingRefresher{}, errContains: "parsing refresh schedule"},
		{name: "seconds field not accepted", spec: "*/5 * * * * *", target: &countingRefresher{}, errContains: "parsing refresh schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewRefreshScheduler(tt.spec, tt.target, discardLogger())
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestNewRefreshScheduler_AcceptedSpecs(t *testing.T) {
	for _, spec := range []string{"@every 10m", "@hourly", "0 * * * *", "*/15 9-17 * * MON-FRI"} {
		t.Run(spec, func(t *testing.T) {
			s, err := NewRefreshScheduler(spec, &countingRefresher{}, nil)
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestRefreshScheduler_Run(t *testing.T) {
	target := &countingRefresher{}

	s, err := NewRefreshScheduler("@every 1s", target, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return target.calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

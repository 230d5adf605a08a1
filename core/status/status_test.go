package status

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestChecker(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		db           Pinger
		onFallback   func() bool
		wantStatus   State
		wantFallback bool
	}{
		{
			name:       "primary reachable",
			db:         fakePinger{},
			wantStatus: StateOK,
		},
		{
			name:         "serving from fallback store",
			db:           fakePinger{err: errors.New("connection refused")},
			onFallback:   func() bool { return true },
			wantStatus:   StateWarning,
			wantFallback: true,
		},
		{
			name:       "ping failure without fallback",
			db:         fakePinger{err: errors.New("connection refused")},
			wantStatus: StateError,
		},
		{
			name:       "no database configured",
			wantStatus: StateError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := NewChecker(tt.db, tt.onFallback).Check(ctx)
			assert.Equal(t, tt.wantStatus, rep.Status)
			assert.Equal(t, tt.wantFallback, rep.Fallback)
			assert.NotEmpty(t, rep.Message)
		})
	}
}

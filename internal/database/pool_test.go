package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err      error
	deadline bool
}

func (s *stubPinger) Ping(ctx context.Context) error {
	_, s.deadline = ctx.Deadline()
	return s.err
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://localhost/vivo")

	assert.Equal(t, "postgres://localhost/vivo", cfg.DSN)
	assert.Equal(t, int32(20), cfg.MaxConns)
	assert.Less(t, cfg.MinConns, cfg.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
}

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), DefaultPoolConfig("::not a url::"))
	assert.ErrorContains(t, err, "parse database url")
}

func TestHealthCheck(t *testing.T) {
	ok := &stubPinger{}
	assert.NoError(t, HealthCheck(context.Background(), ok))
	assert.True(t, ok.deadline, "health check should bound the ping")

	down := &stubPinger{err: errors.New("connection refused")}
	err := HealthCheck(context.Background(), down)
	assert.ErrorContains(t, err, "database unhealthy")
}

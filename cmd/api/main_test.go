package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/config"
)

func TestSessionConfigFunc_IndependentShuffles(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("RANDOMIZE_CHALLENGES", "true")
	cfg, err := config.Load()
	require.NoError(t, err)

	orders := func() []string {
		next, err := sessionConfigFunc(cfg)
		require.NoError(t, err)

		out := make([]string, 0, 20)
		for i := 0; i < 20; i++ {
			sc, err := next()
			require.NoError(t, err)
			assert.ElementsMatch(t, cfg.ChallengeSequence, sc.Sequence.Strings())
			out = append(out, strings.Join(sc.Sequence.Strings(), ","))
		}
		return out
	}

	// two servers started together must not hand out the same orders
	assert.NotEqual(t, orders(), orders())
}

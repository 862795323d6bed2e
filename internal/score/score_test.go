package score_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gennai/arena/internal/mapmodel"
	"github.com/gennai/arena/internal/score"
)

// pathJSON is a 3-site path (0-1-2) with mine 0 and no 0-2 shortcut, so
// dist(0,2)=2 — needed for the futures dist^3 assertions below to land on
// a non-trivial cube.
const pathJSON = `{
  "sites": [{"id":0},{"id":1},{"id":2}],
  "mines": [0],
  "rivers": [{"source":0,"target":1},{"source":1,"target":2}]
}`

func TestAllPassScoresZero(t *testing.T) {
	m, err := mapmodel.Parse([]byte(pathJSON))
	require.NoError(t, err)
	assert.EqualValues(t, 0, score.Compute(m, 0, nil))
	assert.EqualValues(t, 0, score.Compute(m, 1, nil))
}

func TestScenarioBScoring(t *testing.T) {
	m, err := mapmodel.Parse([]byte(pathJSON))
	require.NoError(t, err)
	require.True(t, m.Claim(0, 1, 0))
	require.True(t, m.Claim(1, 2, 0))

	// mine 0 reaches {0,1,2} via owned edges: dist^2 = 0+1+4 = 5
	assert.EqualValues(t, 5, score.Compute(m, 0, nil))
	assert.EqualValues(t, 0, score.Compute(m, 1, nil))
}

func TestFuturesBonusWhenReached(t *testing.T) {
	m, err := mapmodel.Parse([]byte(pathJSON))
	require.NoError(t, err)
	require.True(t, m.Claim(0, 1, 0))
	require.True(t, m.Claim(1, 2, 0))

	futures := []score.Future{{Source: 0, Target: 2}}
	// base 5, plus dist(0,2)^3 = 2^3 = 8
	assert.EqualValues(t, 13, score.Compute(m, 0, futures))
}

func TestFuturesPenaltyWhenUnreached(t *testing.T) {
	m, err := mapmodel.Parse([]byte(pathJSON))
	require.NoError(t, err)
	require.True(t, m.Claim(0, 1, 0))
	// punter 0 never owns an edge reaching site 2 from mine 0.

	futures := []score.Future{{Source: 0, Target: 2}}
	// base: mine 0 reaches {0,1} -> 0+1=1; penalty dist(0,2)^3 = 2^3 = 8
	assert.EqualValues(t, 1-8, score.Compute(m, 0, futures))
}

func TestProvisionalDoesNotSubtract(t *testing.T) {
	m, err := mapmodel.Parse([]byte(pathJSON))
	require.NoError(t, err)
	require.True(t, m.Claim(0, 1, 0))

	futures := []score.Future{{Source: 0, Target: 2}}
	r := score.Provisional(m, 0, futures)
	assert.EqualValues(t, 1, r.Score)
	assert.EqualValues(t, 8, r.PotentialChange)
}

func TestUnreachableFutureTargetIsSkipped(t *testing.T) {
	disjoint := `{
      "sites":[{"id":0},{"id":1},{"id":2}],
      "mines":[0],
      "rivers":[{"source":0,"target":1}]
    }`
	m, err := mapmodel.Parse([]byte(disjoint))
	require.NoError(t, err)
	require.True(t, m.Claim(0, 1, 0))

	futures := []score.Future{{Source: 0, Target: 2}} // site 2 is disconnected entirely
	// base: mine 0 reaches {0,1} -> 1; no penalty/bonus since dist is infinite (unreachable)
	assert.EqualValues(t, 1, score.Compute(m, 0, futures))
}

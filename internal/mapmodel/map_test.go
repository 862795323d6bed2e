package mapmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gennai/arena/internal/arenaerr"
	"github.com/gennai/arena/internal/mapmodel"
)

const triangleJSON = `{
  "sites": [{"id":0},{"id":1},{"id":2}],
  "mines": [0],
  "rivers": [{"source":0,"target":1},{"source":1,"target":2},{"source":0,"target":2}]
}`

func TestParseTriangle(t *testing.T) {
	m, err := mapmodel.Parse([]byte(triangleJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumRivers())
	assert.Equal(t, []int{0, 1, 2}, m.Sites)
	assert.Equal(t, []int{0}, m.Mines)

	d01, ok := m.Dist(0, 1)
	require.True(t, ok)
	assert.Equal(t, 1, d01)

	d00, ok := m.Dist(0, 0)
	require.True(t, ok)
	assert.Equal(t, 0, d00)
}

func TestNormalizationIsIdempotent(t *testing.T) {
	m, err := mapmodel.Parse([]byte(triangleJSON))
	require.NoError(t, err)

	r1, ok := m.Find(0, 1)
	require.True(t, ok)
	r2, ok := m.Find(1, 0)
	require.True(t, ok)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 0, r1.Source)
	assert.Equal(t, 1, r1.Target)
}

func TestClaimOnceThenConflict(t *testing.T) {
	m, err := mapmodel.Parse([]byte(triangleJSON))
	require.NoError(t, err)

	ok := m.Claim(0, 1, 5)
	assert.True(t, ok)

	ok = m.Claim(1, 0, 9) // same river, reversed order
	assert.False(t, ok, "a claimed river cannot be reclaimed")

	r, found := m.Find(0, 1)
	require.True(t, found)
	assert.Equal(t, 5, r.Owner)
}

func TestClaimUnknownRiver(t *testing.T) {
	m, err := mapmodel.Parse([]byte(triangleJSON))
	require.NoError(t, err)
	assert.False(t, m.Claim(0, 99, 1))
}

func TestUnreachableSiteHasNoDistance(t *testing.T) {
	disjoint := `{
      "sites":[{"id":0},{"id":1},{"id":2}],
      "mines":[0],
      "rivers":[{"source":1,"target":2}]
    }`
	m, err := mapmodel.Parse([]byte(disjoint))
	require.NoError(t, err)
	_, ok := m.Dist(0, 1)
	assert.False(t, ok)
}

func TestParseRejectsBadSchema(t *testing.T) {
	_, err := mapmodel.Parse([]byte(`{"sites":[],"mines":[],"rivers":[]}`))
	require.Error(t, err)
	assert.True(t, arenaerr.Is(err, arenaerr.KindMapSchema))
}

func TestParseRejectsRiverToUnknownSite(t *testing.T) {
	_, err := mapmodel.Parse([]byte(`{"sites":[{"id":0}],"mines":[0],"rivers":[{"source":0,"target":7}]}`))
	require.Error(t, err)
	assert.True(t, arenaerr.Is(err, arenaerr.KindMapSchema))
}

func TestDuplicateRiverInInputIsDeduped(t *testing.T) {
	dup := `{
      "sites":[{"id":0},{"id":1}],
      "mines":[0],
      "rivers":[{"source":0,"target":1},{"source":1,"target":0}]
    }`
	m, err := mapmodel.Parse([]byte(dup))
	require.NoError(t, err)
	assert.Equal(t, 1, m.NumRivers())
}

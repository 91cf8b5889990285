package distr

import (
	"testing"

	"github.com/TritonDataCenter/manta-chum/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	pool, err := Expand("1,2,3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, pool)

	pool, err = Expand("1x3,2,3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1", "1", "2", "3"}, pool)

	// ':' is an accepted multiplier separator too
	pool, err = Expand("5:2,7")
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "5", "7"}, pool)
}

func TestExpandPoolLength(t *testing.T) {
	// pool length is the sum of declared counts, default 1
	pool, err := Expand("ax0,b,cx4,d:2")
	require.NoError(t, err)
	assert.Len(t, pool, 0+1+4+2)
	for _, v := range pool {
		assert.Contains(t, []string{"b", "c", "d"}, v)
	}
}

func TestExpandMalformedTokenSkipped(t *testing.T) {
	// too many multiples: the entry is dropped, the rest still parses
	pool, err := Expand("1x2x3,4")
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, pool)
}

func TestExpandBadCount(t *testing.T) {
	_, err := Expand("1xbogus")
	assert.Error(t, err)
}

func TestSizes(t *testing.T) {
	sizes, err := Sizes("128,256x2", "k")
	require.NoError(t, err)
	assert.Equal(t, []uint64{128 * 1024, 256 * 1024, 256 * 1024}, sizes)

	sizes, err = Sizes("1", "m")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1024 * 1024}, sizes)
}

func TestSizesErrors(t *testing.T) {
	_, err := Sizes("128", "q")
	assert.Error(t, err, "unknown unit")

	_, err = Sizes("abc", "k")
	assert.Error(t, err, "non-numeric size")

	_, err = Sizes("1x2x3", "k")
	assert.Error(t, err, "nothing survives expansion")
}

func TestOps(t *testing.T) {
	ops, err := Ops("w:8,r:2")
	require.NoError(t, err)
	require.Len(t, ops, 10)

	var w, r int
	for _, op := range ops {
		switch op {
		case models.OpWrite:
			w++
		case models.OpRead:
			r++
		}
	}
	assert.Equal(t, 8, w)
	assert.Equal(t, 2, r)
}

func TestOpsUnknownToken(t *testing.T) {
	_, err := Ops("w,x")
	assert.Error(t, err)
}

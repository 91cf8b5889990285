package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProber struct {
	fill float64
	err  error
}

func (p stubProber) Fill() (float64, error) { return p.fill, p.err }

func TestDataCapNone(t *testing.T) {
	var c DataCap
	assert.False(t, c.Active())
	assert.False(t, c.NeedsProber())
	assert.False(t, c.Exceeded(1<<40, nil))
	assert.Equal(t, "none", c.String())
}

func TestByteCap(t *testing.T) {
	c := ByteCap(1024)
	assert.True(t, c.Active())
	assert.False(t, c.NeedsProber())
	assert.False(t, c.Exceeded(1023, nil))
	assert.True(t, c.Exceeded(1024, nil))
	assert.True(t, c.Exceeded(4096, nil))
}

func TestFillCap(t *testing.T) {
	c := FillCap(80)
	assert.True(t, c.Active())
	assert.True(t, c.NeedsProber())

	assert.False(t, c.Exceeded(0, stubProber{fill: 79.9}))
	assert.True(t, c.Exceeded(0, stubProber{fill: 80.0}))
	assert.True(t, c.Exceeded(0, stubProber{fill: 95.5}))

	// bytes written are irrelevant to a percentage cap
	assert.False(t, c.Exceeded(1<<40, stubProber{fill: 10}))
}

func TestFillCapProbeFailure(t *testing.T) {
	c := FillCap(80)
	// a failed probe is retried next tick, never treated as exceeded
	assert.False(t, c.Exceeded(0, stubProber{err: errors.New("statfs: no device")}))
	assert.False(t, c.Exceeded(0, nil))
}

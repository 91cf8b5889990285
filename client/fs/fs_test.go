package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/config"
	"github.com/TritonDataCenter/manta-chum/models"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, root string) (client.Backend, *queue.Queue) {
	t.Helper()
	q := queue.New(queue.Lru, 100)
	b, err := New(root, client.Options{
		Worker: 0,
		Sizes:  []uint64{1024},
		Queue:  q,
	})
	require.NoError(t, err)
	return b, q
}

func TestWriteReadDelete(t *testing.T) {
	root := t.TempDir()
	b, q := newTestBackend(t, root)

	rec, err := b.Write()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.OpWrite, rec.Op)
	assert.Equal(t, uint64(1024), rec.Size)
	assert.GreaterOrEqual(t, rec.RTT, rec.TTFB)
	require.Equal(t, 1, q.Len(), "written object must be tracked")

	// peek at the object on disk without consuming the queue entry
	entries, err := os.ReadDir(filepath.Join(root, config.ObjectDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	fi, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, int64(1024), fi.Size())

	rec, err = b.Read()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.OpRead, rec.Op)
	assert.Equal(t, uint64(1024), rec.Size)
	assert.Equal(t, 1, q.Len(), "a read must keep the object tracked")

	rec, err = b.Delete()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.OpDelete, rec.Op)
	assert.Equal(t, 0, q.Len())

	entries, err = os.ReadDir(filepath.Join(root, config.ObjectDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadEmptyIsNoOp(t *testing.T) {
	b, _ := newTestBackend(t, t.TempDir())

	rec, err := b.Read()
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = b.Delete()
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRegisteredScheme(t *testing.T) {
	b, err := client.New("fs:"+t.TempDir(), client.Options{
		Sizes: []uint64{128},
		Queue: queue.New(queue.Lru, 10),
	})
	require.NoError(t, err)
	require.NotNil(t, b)

	// the local backend is the one that can answer fill probes
	p, ok := b.(client.FillProber)
	require.True(t, ok)
	fill, err := p.Fill()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fill, 0.0)
	assert.LessOrEqual(t, fill, 100.0)
}

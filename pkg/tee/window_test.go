package tee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/marmos91/ztee/pkg/fdkind"
)

const mib = 1 << 20

func TestWindowCycles(t *testing.T) {
	sys := newFakeSys()
	m := newRecordingMetrics()
	w := newWindow(sys, ep("out", 10, fdkind.Regular), 0, 8*mib, m)

	for range 20 {
		require.NoError(t, w.Advance(mib))
	}
	require.NoError(t, w.Flush())

	assert.Equal(t, []wbCall{
		{WritebackAsync, 10, 0, 8 * mib},
		{WritebackAsync, 10, 8 * mib, 8 * mib},
		{WritebackEvict, 10, 0, 8 * mib},
		{WritebackEvict, 10, 8 * mib, 12 * mib},
	}, sys.writebacks)

	assert.Equal(t, uint64(2), w.Index())
	assert.Equal(t, int64(4*mib), w.Filled())
	assert.Equal(t, int64(2), w.started)
	assert.Equal(t, int64(2), w.evicted)
	assert.Equal(t, map[string]int{WritebackAsync: 2, WritebackEvict: 1, WritebackFinal: 1}, m.writebacks)
}

func TestWindowShortTransfer(t *testing.T) {
	sys := newFakeSys()
	w := newWindow(sys, ep("out", 10, fdkind.Regular), 0, 8*mib, nil)

	require.NoError(t, w.Advance(3*mib))
	require.NoError(t, w.Advance(4*mib))
	require.NoError(t, w.Flush())

	assert.Empty(t, sys.writebacks)
}

func TestWindowEvictsPreviousAfterStartingNext(t *testing.T) {
	sys := newFakeSys()
	w := newWindow(sys, ep("out", 10, fdkind.Regular), 0, 8*mib, nil)

	require.NoError(t, w.Advance(24*mib))

	assert.Equal(t, []wbCall{
		{WritebackAsync, 10, 0, 8 * mib},
		{WritebackAsync, 10, 8 * mib, 8 * mib},
		{WritebackEvict, 10, 0, 8 * mib},
		{WritebackAsync, 10, 16 * mib, 8 * mib},
		{WritebackEvict, 10, 8 * mib, 8 * mib},
	}, sys.writebacks)
	assert.Zero(t, w.Filled())
}

func TestWindowCarriesOverflow(t *testing.T) {
	sys := newFakeSys()
	w := newWindow(sys, ep("out", 10, fdkind.Regular), 0, 8*mib, nil)

	require.NoError(t, w.Advance(10*mib))
	assert.Equal(t, int64(2*mib), w.Filled())

	require.NoError(t, w.Advance(7*mib))
	assert.Equal(t, int64(mib), w.Filled())
	assert.Equal(t, uint64(2), w.Index())
}

func TestWindowHonorsStartOffset(t *testing.T) {
	sys := newFakeSys()
	dst := ep("out", 10, fdkind.Regular)
	dst.Offset = 4096
	w := newWindow(sys, dst, 0, 8*mib, nil)

	require.NoError(t, w.Advance(9*mib))
	require.NoError(t, w.Flush())

	assert.Equal(t, []wbCall{
		{WritebackAsync, 10, 4096, 8 * mib},
		{WritebackEvict, 10, 4096, 9 * mib},
	}, sys.writebacks)
}

func TestWindowWritebackError(t *testing.T) {
	sys := newFakeSys()
	sys.wbErr = unix.EIO
	w := newWindow(sys, ep("out", 10, fdkind.Regular), 3, 8*mib, nil)

	err := w.Advance(8 * mib)
	require.ErrorIs(t, err, ErrWriteback)
	assert.ErrorIs(t, err, unix.EIO)
	assert.Contains(t, err.Error(), "dest 3")
}

package captcha

import (
	"bytes"
	"errors"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func newTestSource(t *testing.T, b byte) *Source {
	t.Helper()
	src, err := NewSource(bytes.NewReader(testKey(b)))
	require.NoError(t, err)
	return src
}

func TestNewSource_SameKeySameSequence(t *testing.T) {
	a := newTestSource(t, 7)
	b := newTestSource(t, 7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestNewSource_DifferentKeys(t *testing.T) {
	a := newTestSource(t, 1)
	b := newTestSource(t, 2)
	same := 0
	for i := 0; i < 16; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 16)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestNewSource_EntropyFailure(t *testing.T) {
	_, err := NewSource(failingReader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntropy)

	_, err = NewSource(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrEntropy)
	assert.ErrorContains(t, err, io.ErrUnexpectedEOF.Error())
}

func TestDefaultSource(t *testing.T) {
	a, err := DefaultSource()
	require.NoError(t, err)
	b, err := DefaultSource()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSource_NextInclusive(t *testing.T) {
	src := newTestSource(t, 3)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := src.Next(5)
		require.GreaterOrEqual(t, v, 0)
		require.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 6)
	assert.Equal(t, 0, src.Next(0))
}

func TestSource_BetweenNegative(t *testing.T) {
	src := newTestSource(t, 4)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := src.Between(-2, 2)
		require.GreaterOrEqual(t, v, -2)
		require.LessOrEqual(t, v, 2)
		seen[v] = true
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 9, src.Between(9, 9))
}

func TestSource_IntnPanicsOnZero(t *testing.T) {
	src := newTestSource(t, 5)
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSource_Range(t *testing.T) {
	src := newTestSource(t, 6)
	for i := 0; i < 1000; i++ {
		f := src.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)

		r := src.Range(4, 6)
		require.GreaterOrEqual(t, r, 4.0)
		require.Less(t, r, 6.0)
	}
	assert.Equal(t, 2.0, src.Range(2, 2))
}

func TestScaleBelow_LargestDrawStaysBelowHi(t *testing.T) {
	maxDraw := float64((1<<53)-1) / (1 << 53)

	v := scaleBelow(4, 2*math.Pi, maxDraw)
	assert.Less(t, v, 2*math.Pi)
	assert.NoError(t, Wave{Axis: Horizontal, Amplitude: 1, Phase: v}.validate())

	assert.Equal(t, 4.0, scaleBelow(4, 6, 0))
	assert.Equal(t, 2.0, scaleBelow(2, 2, maxDraw))
}

func TestSource_ConcurrentDraws(t *testing.T) {
	src := newTestSource(t, 8)
	var wg sync.WaitGroup
	results := make([][]int, 8)
	for g := range results {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				results[g] = append(results[g], src.Intn(1000))
			}
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Len(t, r, 500)
	}
}

func TestPick(t *testing.T) {
	src := newTestSource(t, 9)
	items := []string{"a", "b", "c"}
	for i := 0; i < 50; i++ {
		assert.Contains(t, items, Pick(src, items))
	}
}

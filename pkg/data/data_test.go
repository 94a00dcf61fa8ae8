package data

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewglue/pkg/view"
)

// arange returns 0, 1, ..., n-1.
func arange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func newTestCube(t *testing.T) *Cube {
	t.Helper()
	cube := NewCube("cube", 2, 3, 4)
	require.NoError(t, cube.AddField("flux", arange(24)))
	return cube
}

func TestCubeAddField(t *testing.T) {
	cube := newTestCube(t)

	err := cube.AddField("flux", arange(24))
	assert.ErrorIs(t, err, ErrDuplicateField)

	err = cube.AddField("short", arange(5))
	assert.ErrorIs(t, err, ErrFieldLength)

	assert.Equal(t, []string{"flux"}, cube.Fields())
	assert.Equal(t, 24, cube.Size())
	assert.Equal(t, []int{2, 3, 4}, cube.Shape())
}

func TestCubeValues(t *testing.T) {
	cube := newTestCube(t)

	comp, err := view.Compose(cube.Shape(), view.View{view.Index(1)}, view.Transpose,
		view.Cutout(0, 2, 1, 3))
	require.NoError(t, err)

	got, err := cube.Values("flux", comp)
	require.NoError(t, err)
	// plane 1 is 12 + y*4 + x; transposed rows are x, columns are y
	assert.Equal(t, []float64{16, 20, 17, 21}, got)
}

func TestCubeValuesErrors(t *testing.T) {
	cube := newTestCube(t)

	comp, err := view.Compose(cube.Shape(), view.View{view.Index(0)})
	require.NoError(t, err)

	_, err = cube.Values("missing", comp)
	var incompatible *IncompatibleAttributeError
	require.True(t, errors.As(err, &incompatible))
	assert.Equal(t, []string{"missing"}, incompatible.Attributes)

	other, err := view.Compose([]int{3, 4}, view.View{})
	require.NoError(t, err)
	_, err = cube.Values("flux", other)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRangeSubsetToMask(t *testing.T) {
	cube := newTestCube(t)
	subset := NewRangeSubset("bright", cube, "flux", 5, 7)

	comp, err := view.Compose(cube.Shape(), view.View{view.Index(0)})
	require.NoError(t, err)

	mask, err := subset.ToMask(comp)
	require.NoError(t, err)
	require.Len(t, mask, 12)
	for i, m := range mask {
		assert.Equal(t, i == 5 || i == 6, m, "element %d", i)
	}

	subset.SetRange(100, 200)
	mask, err = subset.ToMask(comp)
	require.NoError(t, err)
	assert.NotContains(t, mask, true)
}

func TestRangeSubsetMissingField(t *testing.T) {
	cube := newTestCube(t)
	subset := NewRangeSubset("bright", cube, "flux", 0, 1)
	cube.RemoveField("flux")
	assert.False(t, cube.HasField("flux"))

	comp, err := view.Compose(cube.Shape(), view.View{view.Index(0)})
	require.NoError(t, err)

	_, err = subset.ToMask(comp)
	var incompatible *IncompatibleAttributeError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, []string{"flux"}, incompatible.Attributes)
	assert.Contains(t, err.Error(), "flux")
}

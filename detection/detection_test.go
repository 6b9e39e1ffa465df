package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangefinder/geometry"
)

func det(class string, conf, x1, x2 float64) Detection {
	return Detection{ClassName: class, Confidence: conf, Box: geometry.Box{X1: x1, Y1: 0, X2: x2, Y2: 10}}
}

func TestFirstAboveReturnsFirstByOrder(t *testing.T) {
	dets := []Detection{
		det("cup", 0.2, 0, 10),
		det("bottle", 0.6, 10, 30),
		det("cup", 0.99, 50, 150),
	}

	got, ok := FirstAbove(dets, 0.5)
	require.True(t, ok)
	assert.Equal(t, "bottle", got.ClassName, "highest confidence must not win over detector order")
}

func TestFirstAboveInclusiveThreshold(t *testing.T) {
	got, ok := FirstAbove([]Detection{det("cup", 0.5, 0, 1)}, 0.5)
	require.True(t, ok)
	assert.Equal(t, "cup", got.ClassName)
}

func TestFirstAboveNoMatch(t *testing.T) {
	_, ok := FirstAbove([]Detection{det("cup", 0.49, 0, 1)}, 0.5)
	assert.False(t, ok)

	_, ok = FirstAbove(nil, 0)
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	dets := []Detection{det("a", 0.1, 0, 1), det("b", 0.7, 0, 1), det("c", 0.9, 0, 1)}
	got := Filter(dets, 0.5)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ClassName)
	assert.Equal(t, "c", got[1].ClassName)
}

func TestDetectionString(t *testing.T) {
	assert.Equal(t, "cup 75% [10,0,30,10]", det("cup", 0.75, 10, 30).String())
}

func overlaps(a, b geometry.Box) bool {
	return a.X1 < b.X2 && b.X1 < a.X2 && a.Y1 < b.Y2 && b.Y1 < a.Y2
}

func TestClassSeparated(t *testing.T) {
	person := geometry.Box{X1: 100, Y1: 50, X2: 400, Y2: 470}
	cup := geometry.Box{X1: 120, Y1: 60, X2: 390, Y2: 460}
	otherPerson := geometry.Box{X1: 110, Y1: 55, X2: 410, Y2: 475}

	out := ClassSeparated([]geometry.Box{person, cup, otherPerson}, []int{0, 41, 0}, 640)

	require.Len(t, out, 3)
	assert.Equal(t, person, out[0], "class 0 is not shifted")
	assert.False(t, overlaps(out[0], out[1]), "different classes never overlap")
	assert.True(t, overlaps(out[0], out[2]), "same class still competes")
	assert.Equal(t, cup.Width(), out[1].Width())
	assert.Equal(t, 41*640+cup.X1, out[1].X1)
}

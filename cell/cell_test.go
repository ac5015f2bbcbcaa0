package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	tests := []struct {
		ct       Type
		dim      int
		vertices int
		entities []int
	}{
		{Interval, 1, 2, []int{2, 1}},
		{Triangle, 2, 3, []int{3, 3, 1}},
		{Quadrilateral, 2, 4, []int{4, 4, 1}},
		{Tetrahedron, 3, 4, []int{4, 6, 4, 1}},
		{Hexahedron, 3, 8, []int{8, 12, 6, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.ct.String(), func(t *testing.T) {
			assert.Equal(t, tt.dim, tt.ct.Dim())
			assert.Equal(t, tt.vertices, tt.ct.NumVertices())
			for d, n := range tt.entities {
				assert.Equal(t, n, tt.ct.NumEntities(d), "dimension %d", d)
			}
			assert.Nil(t, tt.ct.EntityVertices(tt.dim+1))
		})
	}
}

func TestEntityType(t *testing.T) {
	assert.Equal(t, Interval, Tetrahedron.EntityType(1))
	assert.Equal(t, Triangle, Tetrahedron.EntityType(2))
	assert.Equal(t, Quadrilateral, Hexahedron.EntityType(2))
	assert.Equal(t, Point, Triangle.EntityType(0))
	assert.Equal(t, Triangle, Triangle.EntityType(2))
	assert.True(t, Tetrahedron.IsSimplex())
	assert.False(t, Hexahedron.IsSimplex())
}

func TestParseType(t *testing.T) {
	ct, err := ParseType(" Tetrahedron ")
	require.NoError(t, err)
	assert.Equal(t, Tetrahedron, ct)

	_, err = ParseType("prism")
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, "cell.Type(42)", Type(42).String())
	assert.Equal(t, -1, Type(42).Dim())
}

package octree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.3, 0.11))
}

func TestVectorClass(t *testing.T) {
	zeroVector := Vector3f{0, 0, 0}
	oneVector := Vector3f{1, 1, 1}

	require.True(t, zeroVector.Equal(Vector3f{0, 0, 0}))
	require.True(t, oneVector.EqualWithEpsilon(Vector3f{0.9, 1.1, 1}, 0.11))

	require.True(t, oneVector.Equal(Add(zeroVector, oneVector)))
	require.True(t, oneVector.Equal(Sub(oneVector, zeroVector)))
	require.True(t, zeroVector.Equal(Mul(oneVector, 0)))

	l1Vector := Vector3f{1, 0, 0}
	require.True(t, 1 == l1Vector.Length())
}

func TestInCube(t *testing.T) {
	center := Vector3f{0, 0, 0}

	require.True(t, Vector3f{0, 0, 0}.InCube(center, 90))
	require.True(t, Vector3f{45, -45, 45}.InCube(center, 90))
	require.False(t, Vector3f{45.1, 0, 0}.InCube(center, 90))
	require.False(t, Vector3f{0, -46, 0}.InCube(center, 90))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequentialIDGeneratorNew(t *testing.T) {
	var idGen SequentialIDGenerator

	for i := 1; i <= 5; i++ {
		id := idGen.New()
		require.Equal(t, uint32(i), id)
	}
}

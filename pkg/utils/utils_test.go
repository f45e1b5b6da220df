package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.Len(t, id, idLength)
		assert.False(t, seen[id], "id repetido: %s", id)
		seen[id] = true
	}
}

func TestRoundWithTwoDecimalPlace(t *testing.T) {
	assert.Equal(t, 0.0, RoundWithTwoDecimalPlace(0))
	assert.Equal(t, 1.23, RoundWithTwoDecimalPlace(1.234))
	assert.Equal(t, 0.46, RoundWithTwoDecimalPlace(0.4+0.6*(3.0/30.0)))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 20.0, RoundTo(100*0.2/1, 6))
	assert.Equal(t, 0.123457, RoundTo(0.1234567, 6))
	assert.Equal(t, -1.3, RoundTo(-1.25, 1))
	assert.Equal(t, 3.0, RoundTo(2.5, 0))
}

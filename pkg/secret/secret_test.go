package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func TestBox(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Encrypt("EAAB-token")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "EAAB-token")

	plain, err := box.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-token", plain)

	// texto adulterado não passa na autenticação
	sealed[len(sealed)-1] ^= 0xff
	_, err = box.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestBoxEmpty(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Encrypt("")
	require.NoError(t, err)
	assert.Nil(t, sealed)

	plain, err := box.Decrypt(nil)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestNewBoxInvalidKey(t *testing.T) {
	_, err := NewBox("zz")
	assert.Error(t, err)

	_, err = NewBox("abcd")
	assert.Error(t, err)
}

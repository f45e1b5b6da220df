package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var ErrDecrypt = errors.New("secret: não foi possível decifrar o valor")

// Box cifra os tokens das conexões com XSalsa20-Poly1305; o nonce vai
// prefixado ao texto cifrado
type Box struct {
	key [keySize]byte
}

// NewBox recebe a chave em hexadecimal (64 caracteres)
func NewBox(hexKey string) (*Box, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secret: chave inválida: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("secret: a chave deve ter %d bytes, recebido %d", keySize, len(raw))
	}

	b := &Box{}
	copy(b.key[:], raw)
	return b, nil
}

func (b *Box) Encrypt(plain string) ([]byte, error) {
	if plain == "" {
		return nil, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}

	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key), nil
}

func (b *Box) Decrypt(sealed []byte) (string, error) {
	if len(sealed) == 0 {
		return "", nil
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

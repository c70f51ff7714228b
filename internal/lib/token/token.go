// Package token реализует генератор одноразовых токенов активации.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// Maker выдаёт криптостойкие случайные токены.
type Maker struct{}

// NewMaker создает новый Maker.
func NewMaker() *Maker {
	return &Maker{}
}

// Generate возвращает случайную строку с высокой энтропией,
// пригодную как одноразовый ключ активации в URL.
func (m *Maker) Generate() (string, error) {
	const op = "token.Generate"
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Package secretbox cifra strings con AES-256-GCM para datos en reposo.
// El formato de salida es base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM = 12  // AES-GCM nonce recomendado (96 bits)
	KeyLength    = 32  // 32 bytes => AES-256
	sep          = "|" // nonce|ciphertext (ambos en base64)
)

// ErrBadFormat indica que el texto cifrado no respeta nonce|ciphertext.
var ErrBadFormat = errors.New("formato inválido: esperado base64(nonce)|base64(ciphertext)")

// Box cifra y descifra strings con una clave fija de 32 bytes.
type Box struct {
	aead cipher.AEAD
}

// New crea un Box a partir de una clave cruda de exactamente 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != KeyLength {
		return nil, fmt.Errorf("clave inválida: %d bytes (requiere %d)", len(key), KeyLength)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Parse crea un Box aceptando la clave en base64 (std o sin padding), hex
// o cruda de 32 bytes. Se prueba en ese orden.
func Parse(key string) (*Box, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("clave vacía; genere una con: openssl rand -base64 %d", KeyLength)
	}

	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == KeyLength {
		return New(b)
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == KeyLength {
		return New(b)
	}
	if len(key) == KeyLength*2 {
		if h, err := hex.DecodeString(key); err == nil {
			return New(h)
		}
	}
	return New([]byte(key))
}

// GenerateKey devuelve una clave aleatoria de 32 bytes en base64 estándar,
// lista para pegar en un .env.
func GenerateKey() (string, error) {
	k := make([]byte, KeyLength)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return "", fmt.Errorf("key random: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k), nil
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}

	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)

	nonceB64 := base64.StdEncoding.EncodeToString(nonce)
	ctB64 := base64.StdEncoding.EncodeToString(ct)
	return nonceB64 + sep + ctB64, nil
}

// Decrypt recibe base64(nonce)|base64(ciphertext) y devuelve el texto plano.
// Falla si el formato no coincide o la autenticación GCM no pasa (clave
// incorrecta o datos alterados).
func (b *Box) Decrypt(cipherText string) (string, error) {
	parts := strings.Split(cipherText, sep)
	if len(parts) != 2 {
		return "", ErrBadFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSizeGCM, len(nonce))
	}

	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}

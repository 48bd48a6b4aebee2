package docstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Format: magic(8) + salt(16) + nonce(12) + ciphertext + tag(16)
const (
	gcmMagic   = "GCM3NCR0"
	saltLen    = 16
	nonceLen   = 12
	tagLen     = 16
	kdfRounds  = 100000
	keyLen     = 32
	headerSize = len(gcmMagic) + saltLen + nonceLen
)

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfRounds, keyLen, sha256.New)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func sealGCM(plain []byte, password string) ([]byte, error) {
	header := make([]byte, headerSize)
	copy(header, gcmMagic)
	if _, err := io.ReadFull(rand.Reader, header[len(gcmMagic):]); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	salt := header[len(gcmMagic) : len(gcmMagic)+saltLen]
	nonce := header[len(gcmMagic)+saltLen:]
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(header, nonce, plain, nil), nil
}

func openGCM(data []byte, password string) ([]byte, error) {
	if len(data) < headerSize+tagLen {
		return nil, fmt.Errorf("GCM data too short: %d bytes", len(data))
	}
	if string(data[:len(gcmMagic)]) != gcmMagic {
		return nil, fmt.Errorf("unknown encryption format")
	}
	salt := data[len(gcmMagic) : len(gcmMagic)+saltLen]
	nonce := data[len(gcmMagic)+saltLen : headerSize]
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, data[headerSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plain, nil
}

package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters. Changing them invalidates existing journals.
const (
	keyIterations = 120000
	keyLength     = 32
)

// EncryptionManagerInterface defines encryption and decryption methods.
type EncryptionManagerInterface interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptionManager performs AES-256-GCM with a key derived from a device
// passphrase. Punch journals sit on disk on shared kiosks, so records are
// sealed rather than stored in the clear.
type EncryptionManager struct {
	key []byte
}

// NewEncryptionManager derives the AES key from the passphrase and salt
// using PBKDF2-SHA256.
func NewEncryptionManager(passphrase, salt []byte) (*EncryptionManager, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("empty passphrase")
	}
	if len(salt) < 8 {
		return nil, errors.New("salt must be at least 8 bytes")
	}

	key := pbkdf2.Key(passphrase, salt, keyIterations, keyLength, sha256.New)
	return &EncryptionManager{key: key}, nil
}

// Encrypt seals the plaintext; the random nonce is prepended to the output.
func (em *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := em.newGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (em *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := em.newGCM()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func (em *EncryptionManager) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(em.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Package crypto provides the signing and symmetric encryption backend used by
// clients and the order server: Ed25519 signatures and NaCl secretbox
// (XSalsa20-Poly1305) for orders at rest.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"order-server/src/helpers"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// SymmetricKeySize is the master key length in bytes
	SymmetricKeySize = 32
	nonceSize        = 24
)

// -----------------------------------------------------------------------------

// StandardProvider implements interfaces.ICryptoProvider.
type StandardProvider struct {
	random io.Reader
}

// -----------------------------------------------------------------------------

// NewStandardProvider reads randomness from crypto/rand.
func NewStandardProvider() *StandardProvider {
	return &StandardProvider{random: rand.Reader}
}

// -----------------------------------------------------------------------------

func (p *StandardProvider) GenerateSigningKeyPair() ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(p.random)
	if err != nil {
		return nil, nil, helpers.NewCryptoError("failed to generate signing key pair", err)
	}
	return []byte(pub), []byte(priv), nil
}

// -----------------------------------------------------------------------------

func (p *StandardProvider) Sign(privateKey []byte, data []byte) ([]byte, error) {
	// ed25519.Sign panics on a bad key length
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, helpers.NewSigningError(
			fmt.Sprintf("invalid private key length %d", len(privateKey)), nil)
	}
	return ed25519.Sign(ed25519.PrivateKey(privateKey), data), nil
}

// -----------------------------------------------------------------------------

func (p *StandardProvider) Verify(publicKey []byte, data []byte, signature []byte) (bool, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return false, helpers.NewVerificationError(
			fmt.Sprintf("invalid public key length %d", len(publicKey)), nil)
	}
	if len(signature) != ed25519.SignatureSize {
		return false, helpers.NewVerificationError(
			fmt.Sprintf("invalid signature length %d", len(signature)), nil)
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), data, signature), nil
}

// -----------------------------------------------------------------------------

func (p *StandardProvider) GenerateSymmetricKey() ([]byte, error) {
	key := make([]byte, SymmetricKeySize)
	if _, err := io.ReadFull(p.random, key); err != nil {
		return nil, helpers.NewCryptoError("failed to generate symmetric key", err)
	}
	return key, nil
}

// -----------------------------------------------------------------------------

// Encrypt returns nonce || secretbox(plaintext).
func (p *StandardProvider) Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	secret, err := toKey(key)
	if err != nil {
		return nil, err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(p.random, nonce[:]); err != nil {
		return nil, helpers.NewCryptoError("failed to generate nonce", err)
	}

	out := make([]byte, nonceSize, nonceSize+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plaintext, &nonce, secret), nil
}

// -----------------------------------------------------------------------------

func (p *StandardProvider) Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	secret, err := toKey(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < nonceSize+secretbox.Overhead {
		return nil, helpers.NewCryptoError(
			fmt.Sprintf("ciphertext too short (%d bytes)", len(ciphertext)), nil)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, secret)
	if !ok {
		return nil, helpers.NewCryptoError("ciphertext decryption failed", nil)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// -----------------------------------------------------------------------------

func toKey(key []byte) (*[SymmetricKeySize]byte, error) {
	if len(key) != SymmetricKeySize {
		return nil, helpers.NewCryptoError(
			fmt.Sprintf("invalid symmetric key length %d", len(key)), nil)
	}
	var k [SymmetricKeySize]byte
	copy(k[:], key)
	return &k, nil
}

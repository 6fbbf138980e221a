package interfaces

// -----------------------------------------------------------------------------
// ICryptoProvider is the signing and symmetric encryption backend.
// -----------------------------------------------------------------------------

type ICryptoProvider interface {

	// GenerateSigningKeyPair returns a fresh (publicKey, privateKey) pair.
	GenerateSigningKeyPair() ([]byte, []byte, error)

	// -----------------------------------------------------------------------------

	// Sign signs data with privateKey. Fails with a SigningError.
	Sign(privateKey []byte, data []byte) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Verify checks signature over data. A mismatch is (false, nil);
	// an error is returned only for malformed key or signature input.
	Verify(publicKey []byte, data []byte, signature []byte) (bool, error)

	// -----------------------------------------------------------------------------

	// GenerateSymmetricKey returns a fresh master key.
	GenerateSymmetricKey() ([]byte, error)

	// -----------------------------------------------------------------------------

	// Encrypt seals plaintext under key. Fails with a CryptoError.
	Encrypt(key []byte, plaintext []byte) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Decrypt opens ciphertext under key. Fails with a CryptoError.
	Decrypt(key []byte, ciphertext []byte) ([]byte, error)
}

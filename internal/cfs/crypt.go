package cfs

import "io"

// Encryptor encrypts index archives for export. Setup generates the key
// material; Encrypt only needs the public half, so exports never prompt
// for a passphrase.
type Encryptor interface {
	// Setup generates and stores a key pair, protecting the private half
	// with the passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock verifies the passphrase and returns a context able to decrypt.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether key material is in place.
	IsConfigured() bool
}

// DecryptionContext holds unlocked key material for decrypting archives.
type DecryptionContext interface {
	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}

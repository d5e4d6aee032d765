package cfs

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// DigestHexLen is the length of the lowercase hex digest SHA256Hasher
// produces, and the expected length of the sha256 field in records it wrote.
const DigestHexLen = sha256.Size * 2

// Hasher computes a content digest over a stream. The codec never calls it;
// only the snapshot orchestrator does, and only when hashing is requested.
type Hasher interface {
	Sum(r io.Reader) (string, error)
}

// SHA256Hasher is the production Hasher.
type SHA256Hasher struct{}

func (SHA256Hasher) Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var _ Hasher = SHA256Hasher{}

// Package cryptox implements the personal-data protection primitives:
// a keyed deterministic hash for searchable indexes and credential checks,
// and authenticated symmetric encryption for storage-at-rest of PII.
//
// Both operate under a single shared secret supplied at process start.
// Rotating the secret invalidates every previously stored hash and token.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/hoaboard/internal/common"
)

const keySize = 32

// tokenBytes is the entropy of a one-time token; the hex form is twice
// as long.
const tokenBytes = 32

// keyDerivationSalt is a fixed constant: the cipher key must be derivable
// from the secret alone, so the same secret always yields the same key.
var keyDerivationSalt = []byte("hoaboard.pii.key.v1")

// tokenContext is bound to every ciphertext as associated data; a token
// sealed for another context does not verify here.
var tokenContext = []byte("hoaboard.pii.v1")

var encoding = base64.RawURLEncoding

// Provider performs hashing and encryption under one shared secret.
// It holds no mutable state and is safe for concurrent use.
type Provider struct {
	secret []byte
	aead   cipher.AEAD
}

// NewProvider derives an AES-256 key from the secret via argon2id with a
// fixed salt and prepares the GCM AEAD. The raw secret bytes are never used
// as the cipher key directly.
func NewProvider(secret string) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("cryptox: empty secret")
	}

	key := argon2.IDKey([]byte(secret), keyDerivationSalt, 1, 64*1024, 4, keySize)
	// The cipher expands the key into its own round-key schedule; the
	// derived buffer itself is not needed past this point.
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: gcm init: %w", err)
	}

	return &Provider{secret: []byte(secret), aead: aead}, nil
}

// Hash returns a deterministic keyed digest (HMAC-SHA256, hex) of the
// plaintext. Equal plaintext under the same secret always yields the same
// digest, which makes encrypted columns searchable by equality and lets
// credentials be verified without storing them in clear.
func (p *Provider) Hash(plaintext string) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encrypt seals the plaintext with AES-256-GCM under a fresh random nonce
// and returns a self-contained text token:
//
//	base64(nonce) "." base64(ciphertext) "." base64(tag)
//
// Encrypting the same plaintext twice yields different tokens, so
// ciphertext equality never leaks plaintext equality.
func (p *Provider) Encrypt(plaintext string) (string, error) {
	nonce := common.GenerateRandByteArray(p.aead.NonceSize())

	sealed := p.aead.Seal(nil, nonce, []byte(plaintext), tokenContext)

	// Seal appends the tag to the ciphertext; split it back out so the
	// token carries all three parts explicitly.
	split := len(sealed) - p.aead.Overhead()
	ciphertext, tag := sealed[:split], sealed[split:]

	return encoding.EncodeToString(nonce) + "." +
		encoding.EncodeToString(ciphertext) + "." +
		encoding.EncodeToString(tag), nil
}

// Decrypt opens a token produced by Encrypt and returns the original
// plaintext. Any alteration of the token, or a token produced under a
// different secret, fails with common.ErrAuthenticationFailed; corrupted
// data is never returned silently.
func (p *Provider) Decrypt(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", common.ErrAuthenticationFailed
	}

	nonce, err := encoding.DecodeString(parts[0])
	if err != nil || len(nonce) != p.aead.NonceSize() {
		return "", common.ErrAuthenticationFailed
	}
	ciphertext, err := encoding.DecodeString(parts[1])
	if err != nil {
		return "", common.ErrAuthenticationFailed
	}
	tag, err := encoding.DecodeString(parts[2])
	if err != nil || len(tag) != p.aead.Overhead() {
		return "", common.ErrAuthenticationFailed
	}

	plaintext, err := p.aead.Open(nil, nonce, append(ciphertext, tag...), tokenContext)
	if err != nil {
		return "", common.ErrAuthenticationFailed
	}

	return string(plaintext), nil
}

// NewToken returns a cryptographically random one-time token for the
// recovery/validation/invitation flows. Only its Hash is ever persisted.
func (p *Provider) NewToken() (string, error) {
	return common.MakeRandHexString(tokenBytes)
}

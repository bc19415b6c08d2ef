package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"

	"groupkeys/internal/domain"
)

var (
	// ErrDecrypt is returned when a ciphertext fails authentication.
	ErrDecrypt = errors.New("crypto: message authentication failed")
	// ErrHashSize is returned for keyed hash output sizes BLAKE2b cannot produce.
	ErrHashSize = errors.New("crypto: unsupported keyed hash size")
)

// Provider implements domain.CryptoProvider with XChaCha20-Poly1305 and
// keyed BLAKE2b.
type Provider struct{}

// NewProvider returns the default primitive provider.
func NewProvider() *Provider { return &Provider{} }

// GenerateSenderKey returns a fresh sender key at chain index zero.
func (p *Provider) GenerateSenderKey() (domain.SenderKey, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return domain.SenderKey{}, fmt.Errorf("distribution id: %w", err)
	}
	chainKey := make([]byte, domain.ChainKeySize)
	if _, err := rand.Read(chainKey); err != nil {
		return domain.SenderKey{}, fmt.Errorf("chain key: %w", err)
	}
	return domain.SenderKey{
		DistributionID: domain.DistributionID(id),
		ChainKey:       chainKey,
		ChainIndex:     0,
	}, nil
}

// KeyedHash computes BLAKE2b over input keyed with context.
func (p *Provider) KeyedHash(context, input []byte, size int) ([]byte, error) {
	if size < 1 || size > blake2b.Size {
		return nil, ErrHashSize
	}
	h, err := blake2b.New(size, context)
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(input)
	return h.Sum(nil), nil
}

// KeySize is the symmetric key length Encrypt expects.
func (p *Provider) KeySize() int { return chacha20poly1305.KeySize }

// NonceSize is the nonce length Encrypt expects.
func (p *Provider) NonceSize() int { return chacha20poly1305.NonceSizeX }

// RandomNonce returns a fresh random nonce.
func (p *Provider) RandomNonce() ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// Encrypt seals plaintext under key and nonce.
func (p *Provider) Encrypt(plaintext, key, nonce, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("crypto: nonce must be %d bytes, got %d", aead.NonceSize(), len(nonce))
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

// Decrypt opens ciphertext sealed by Encrypt.
func (p *Provider) Decrypt(ciphertext, key, nonce, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrDecrypt
	}
	pt, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

// Compile-time assertion that Provider implements domain.CryptoProvider.
var _ domain.CryptoProvider = (*Provider)(nil)

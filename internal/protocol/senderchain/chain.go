package senderchain

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"groupkeys/internal/domain"
	"groupkeys/internal/util/memzero"
)

// MaxSkip bounds how far ahead of the chain index a message may be.
const MaxSkip = 2000

var (
	ErrMessageKeyConsumed = errors.New("message key already consumed")
	ErrTooFarAhead        = errors.New("message index too far ahead of chain")
	errChainUninitialised = errors.New("sender chain key is uninitialised")
)

// Seal encrypts plaintext with the message key at key.ChainIndex and
// advances the chain. It returns the index the message was sealed at.
func Seal(key *domain.SenderKey, ad, plaintext []byte) (uint32, []byte, error) {
	if len(key.ChainKey) != domain.ChainKeySize {
		return 0, nil, errChainUninitialised
	}
	index := key.ChainIndex
	nextCK, mk := kdfCK(key.ChainKey)
	ct, err := seal(mk, index, ad, plaintext)
	memzero.Zero(mk)
	if err != nil {
		memzero.Zero(nextCK)
		return 0, nil, err
	}
	memzero.Zero(key.ChainKey)
	key.ChainKey = nextCK
	key.ChainIndex++
	return index, ct, nil
}

// Open decrypts a message sealed at index. On success key is advanced past
// index; on failure key is left untouched.
func Open(key *domain.SenderKey, index uint32, ad, ciphertext []byte) ([]byte, error) {
	if len(key.ChainKey) != domain.ChainKeySize {
		return nil, errChainUninitialised
	}
	if index < key.ChainIndex {
		return nil, ErrMessageKeyConsumed
	}
	if index-key.ChainIndex > MaxSkip {
		return nil, ErrTooFarAhead
	}

	ck := append([]byte(nil), key.ChainKey...)
	for i := key.ChainIndex; i < index; i++ {
		next, mk := kdfCK(ck)
		memzero.Zero(mk)
		memzero.Zero(ck)
		ck = next
	}
	nextCK, mk := kdfCK(ck)
	memzero.Zero(ck)

	pt, err := open(mk, index, ad, ciphertext)
	memzero.Zero(mk)
	if err != nil {
		memzero.Zero(nextCK)
		return nil, err
	}
	memzero.Zero(key.ChainKey)
	key.ChainKey = nextCK
	key.ChainIndex = index + 1
	return pt, nil
}

// --- helpers ---

func seal(mk []byte, index uint32, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonceFor(index), plaintext, ad), nil
}

func open(mk []byte, index uint32, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonceFor(index), ciphertext, ad)
}

func nonceFor(index uint32) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint32(nonce[len(nonce)-4:], index)
	return nonce
}

// HKDF step of the chain.
func kdfCK(ck []byte) (nextCK, mk []byte) {
	r := hkdf.New(sha256.New, ck, nil, []byte("groupkeys|sender-ck"))
	nextCK = make([]byte, domain.ChainKeySize)
	mk = make([]byte, chacha20poly1305.KeySize)
	_, _ = io.ReadFull(r, nextCK)
	_, _ = io.ReadFull(r, mk)
	return
}

// AssociatedData binds a group message header into its ciphertext.
func AssociatedData(msg domain.GroupMessage) []byte {
	out := make([]byte, 0, 64)
	out = appendField(out, []byte(msg.ChannelID))
	out = appendField(out, []byte(msg.From))
	out = append(out, msg.DistributionID[:]...)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], msg.Index)
	return append(out, b[:]...)
}

func appendField(out, field []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(field)))
	out = append(out, n[:]...)
	return append(out, field...)
}

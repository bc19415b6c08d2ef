package types

import (
	"bytes"

	"github.com/google/uuid"
)

const (
	// DistributionIDSize is the length of a DistributionID in bytes.
	DistributionIDSize = 16
	// ChainKeySize is the length of a sender chain key in bytes.
	ChainKeySize = 32
)

// DistributionID correlates one sender key generation.
type DistributionID [DistributionIDSize]byte

// String renders the id in canonical UUID form.
func (d DistributionID) String() string { return uuid.UUID(d).String() }

// IsZero reports whether d is unset.
func (d DistributionID) IsZero() bool { return d == DistributionID{} }

// ParseDistributionID parses the canonical UUID form produced by String.
func ParseDistributionID(s string) (DistributionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DistributionID{}, err
	}
	return DistributionID(u), nil
}

// SenderKey is one symmetric chain used for group message encryption.
type SenderKey struct {
	DistributionID DistributionID `cbor:"1,keyasint" json:"distribution_id"`
	ChainKey       []byte         `cbor:"2,keyasint" json:"chain_key"`
	ChainIndex     uint32         `cbor:"3,keyasint" json:"chain_index"`
}

// Clone returns a copy of k whose ChainKey lives in a fresh buffer.
func (k SenderKey) Clone() SenderKey {
	out := k
	if k.ChainKey != nil {
		out.ChainKey = append(make([]byte, 0, len(k.ChainKey)), k.ChainKey...)
	}
	return out
}

// Equal reports whether k and o carry the same values.
func (k SenderKey) Equal(o SenderKey) bool {
	return k.DistributionID == o.DistributionID &&
		k.ChainIndex == o.ChainIndex &&
		bytes.Equal(k.ChainKey, o.ChainKey)
}

// ReceivedSenderKeyEntry is a sender key learned for a channel, including
// copies of our own past generations.
type ReceivedSenderKeyEntry struct {
	ChannelID  ChannelID `cbor:"1,keyasint" json:"channel_id"`
	FromUserID UserID    `cbor:"2,keyasint" json:"from_user_id"`
	Key        SenderKey `cbor:"3,keyasint" json:"key"`
}

// Clone returns a deep copy of e.
func (e ReceivedSenderKeyEntry) Clone() ReceivedSenderKeyEntry {
	out := e
	out.Key = e.Key.Clone()
	return out
}

// SenderKeyDistribution is the message pushed to every channel member when
// a sender key is distributed.
type SenderKeyDistribution struct {
	ChannelID      ChannelID      `json:"channel_id"`
	From           UserID         `json:"from"`
	DistributionID DistributionID `json:"distribution_id"`
	ChainKey       []byte         `json:"chain_key"`
	ChainIndex     uint32         `json:"chain_index"`
	Signature      []byte         `json:"signature,omitempty"`
}

// GroupMessage is a ciphertext encrypted under a sender key chain.
type GroupMessage struct {
	ChannelID      ChannelID      `json:"channel_id"`
	From           UserID         `json:"from"`
	DistributionID DistributionID `json:"distribution_id"`
	Index          uint32         `json:"index"`
	Ciphertext     []byte         `json:"ciphertext"`
}

// DecryptedGroupMessage is what a successful group decrypt yields.
type DecryptedGroupMessage struct {
	ChannelID ChannelID `json:"channel_id"`
	From      UserID    `json:"from"`
	Plaintext []byte    `json:"plaintext"`
}

package types

import "time"

// SnapshotVersion is the newest Snapshot layout this build understands.
const SnapshotVersion = 1

// Snapshot is the exportable crypto session state.
type Snapshot struct {
	Version     uint8                    `cbor:"1,keyasint"`
	OwnKeys     map[ChannelID]SenderKey  `cbor:"2,keyasint"`
	Received    []ReceivedSenderKeyEntry `cbor:"3,keyasint"`
	Distributed []ChannelID              `cbor:"4,keyasint"`
}

// EncryptedRecord is the durable, encrypted form of a Snapshot.
type EncryptedRecord struct {
	UserID     UserID    `cbor:"1,keyasint"`
	Ciphertext []byte    `cbor:"2,keyasint"`
	Nonce      []byte    `cbor:"3,keyasint"`
	UpdatedAt  time.Time `cbor:"4,keyasint"`
}

// StoreCounts reports the sizes of the in-memory sender key structures.
type StoreCounts struct {
	OwnKeys     int
	Received    int
	Distributed int
}

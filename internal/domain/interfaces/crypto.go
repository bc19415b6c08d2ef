package interfaces

import domaintypes "groupkeys/internal/domain/types"

// CryptoProvider supplies the primitives the core relies on.
type CryptoProvider interface {
	// GenerateSenderKey returns a fresh key with a random distribution id
	// and chain index zero.
	GenerateSenderKey() (domaintypes.SenderKey, error)
	// KeyedHash derives size bytes from input under the given context.
	KeyedHash(context, input []byte, size int) ([]byte, error)

	KeySize() int
	NonceSize() int
	RandomNonce() ([]byte, error)
	Encrypt(plaintext, key, nonce, additionalData []byte) ([]byte, error)
	Decrypt(ciphertext, key, nonce, additionalData []byte) ([]byte, error)
}

// SnapshotCodec builds, restores and serialises the crypto session state.
type SnapshotCodec interface {
	BuildSnapshot() (domaintypes.Snapshot, error)
	RestoreSnapshot(snapshot domaintypes.Snapshot) error
	Marshal(snapshot domaintypes.Snapshot) ([]byte, error)
	Unmarshal(b []byte) (domaintypes.Snapshot, error)
}

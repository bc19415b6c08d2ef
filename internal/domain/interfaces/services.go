package interfaces

import (
	"context"

	domaintypes "groupkeys/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// Coordinator guarantees a channel has a distributed own sender key.
type Coordinator interface {
	EnsureDistributed(
		ctx context.Context,
		channel domaintypes.ChannelID,
	) (domaintypes.SenderKey, error)
	Invalidate(channel domaintypes.ChannelID)
}

// PersistenceGateway round-trips the crypto session through durable storage.
type PersistenceGateway interface {
	Persist(
		ctx context.Context,
		user domaintypes.UserID,
		identityPrivateKey domaintypes.X25519Private,
	) bool
	Load(
		ctx context.Context,
		user domaintypes.UserID,
		identityPrivateKey domaintypes.X25519Private,
	) bool
	Clear(ctx context.Context, user domaintypes.UserID)
}

// GroupMessageService encrypts and decrypts group messages.
type GroupMessageService interface {
	Send(
		ctx context.Context,
		channel domaintypes.ChannelID,
		plaintext []byte,
	) (domaintypes.GroupMessage, error)
	Decrypt(msg domaintypes.GroupMessage) (domaintypes.DecryptedGroupMessage, error)
	Ingest(ctx context.Context) (int, error)
}

package interfaces

import (
	"context"

	domaintypes "groupkeys/internal/domain/types"
)

// SenderKeyStore is the authoritative in-memory mapping of own and received
// sender keys. Keys handed out are clones; mutation goes through the Update
// methods.
type SenderKeyStore interface {
	GetOwnKey(channel domaintypes.ChannelID) (domaintypes.SenderKey, bool)
	SetOwnKey(channel domaintypes.ChannelID, key domaintypes.SenderKey)
	RemoveOwnKey(channel domaintypes.ChannelID)
	// InstallOwnKey stores key as the own key for channel and, when
	// selfCopyFrom is non-empty, its self-copy, in one step.
	InstallOwnKey(
		channel domaintypes.ChannelID,
		key domaintypes.SenderKey,
		selfCopyFrom domaintypes.UserID,
	)
	UpdateOwnKey(
		channel domaintypes.ChannelID,
		fn func(key *domaintypes.SenderKey) error,
	) error

	AddReceivedKey(
		channel domaintypes.ChannelID,
		distributionID domaintypes.DistributionID,
		from domaintypes.UserID,
		key domaintypes.SenderKey,
	) bool
	ListReceivedKeys(channel domaintypes.ChannelID) []domaintypes.ReceivedSenderKeyEntry
	UpdateReceivedKey(
		channel domaintypes.ChannelID,
		distributionID domaintypes.DistributionID,
		fn func(entry *domaintypes.ReceivedSenderKeyEntry) error,
	) error

	MarkDistributed(channel domaintypes.ChannelID)
	// MarkDistributedIfCurrent marks channel only while its own key still
	// carries distributionID, and reports whether it did.
	MarkDistributedIfCurrent(
		channel domaintypes.ChannelID,
		distributionID domaintypes.DistributionID,
	) bool
	UnmarkDistributed(channel domaintypes.ChannelID)
	IsDistributed(channel domaintypes.ChannelID) bool

	Counts() domaintypes.StoreCounts
	Export() domaintypes.Snapshot
	Replace(snapshot domaintypes.Snapshot)
	Clear()
}

// RecordStore is the transactional durable store holding one encrypted
// record per user.
type RecordStore interface {
	Get(ctx context.Context, user domaintypes.UserID) (domaintypes.EncryptedRecord, bool, error)
	Put(ctx context.Context, record domaintypes.EncryptedRecord) error
	Delete(ctx context.Context, user domaintypes.UserID) error
	Clear(ctx context.Context) error
	Close() error
}

// IdentityStore persists your long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

package domain

import (
	interfaces "groupkeys/internal/domain/interfaces"
	types "groupkeys/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID                 = types.UserID
	ChannelID              = types.ChannelID
	Fingerprint            = types.Fingerprint
	DistributionID         = types.DistributionID
	SenderKey              = types.SenderKey
	ReceivedSenderKeyEntry = types.ReceivedSenderKeyEntry
	SenderKeyDistribution  = types.SenderKeyDistribution
	GroupMessage           = types.GroupMessage
	DecryptedGroupMessage  = types.DecryptedGroupMessage
	Snapshot               = types.Snapshot
	EncryptedRecord        = types.EncryptedRecord
	StoreCounts            = types.StoreCounts
	Identity               = types.Identity
	Member                 = types.Member
	X25519Public           = types.X25519Public
	X25519Private          = types.X25519Private
	Ed25519Public          = types.Ed25519Public
	Ed25519Private         = types.Ed25519Private
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	SenderKeyStore      = interfaces.SenderKeyStore
	RecordStore         = interfaces.RecordStore
	IdentityStore       = interfaces.IdentityStore
	CryptoProvider      = interfaces.CryptoProvider
	SnapshotCodec       = interfaces.SnapshotCodec
	Distributor         = interfaces.Distributor
	RelayClient         = interfaces.RelayClient
	IdentityService     = interfaces.IdentityService
	Coordinator         = interfaces.Coordinator
	PersistenceGateway  = interfaces.PersistenceGateway
	GroupMessageService = interfaces.GroupMessageService
)

// Re-exported constants and helpers.
const (
	DistributionIDSize = types.DistributionIDSize
	ChainKeySize       = types.ChainKeySize
	SnapshotVersion    = types.SnapshotVersion
)

// ParseDistributionID parses the canonical UUID form of a distribution id.
var ParseDistributionID = types.ParseDistributionID

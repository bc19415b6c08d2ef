package interfaces

import (
	"context"

	domaintypes "groupkeys/internal/domain/types"
)

// Distributor resolves channel membership and delivers sender key
// distributions. Retry policy is its concern.
type Distributor interface {
	ChannelMembers(
		ctx context.Context,
		channel domaintypes.ChannelID,
	) ([]domaintypes.Member, error)
	DeliverSenderKey(
		ctx context.Context,
		to domaintypes.UserID,
		msg domaintypes.SenderKeyDistribution,
	) error
}

// RelayClient is how we talk to the central relay server, all with context.
type RelayClient interface {
	Distributor

	SetChannelMembers(
		ctx context.Context,
		channel domaintypes.ChannelID,
		members []domaintypes.Member,
	) error
	FetchSenderKeys(
		ctx context.Context,
		user domaintypes.UserID,
	) ([]domaintypes.SenderKeyDistribution, error)
}

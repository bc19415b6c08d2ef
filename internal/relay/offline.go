package relay

import (
	"context"
	"errors"

	"groupkeys/internal/domain"
)

// ErrNoRelay is returned by Offline for every call.
var ErrNoRelay = errors.New("no relay configured")

// Offline is the RelayClient used when no relay URL is configured. Keys are
// still generated; distribution simply keeps failing until a relay is set.
type Offline struct{}

func (Offline) ChannelMembers(context.Context, domain.ChannelID) ([]domain.Member, error) {
	return nil, ErrNoRelay
}

func (Offline) SetChannelMembers(context.Context, domain.ChannelID, []domain.Member) error {
	return ErrNoRelay
}

func (Offline) DeliverSenderKey(context.Context, domain.UserID, domain.SenderKeyDistribution) error {
	return ErrNoRelay
}

func (Offline) FetchSenderKeys(context.Context, domain.UserID) ([]domain.SenderKeyDistribution, error) {
	return nil, ErrNoRelay
}

var _ domain.RelayClient = Offline{}

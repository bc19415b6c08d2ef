package groupmsg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"groupkeys/internal/crypto"
	"groupkeys/internal/domain"
	"groupkeys/internal/protocol/senderchain"
)

var (
	// ErrNoLocalUser is returned when no user is logged in.
	ErrNoLocalUser = errors.New("no local user; log in first")
	// ErrUnknownDistribution is returned when no received key matches a
	// message's channel, sender and distribution id.
	ErrUnknownDistribution = errors.New("unknown sender key distribution")
	// ErrRequeue is returned by Ingest when distributions it could not yet
	// verify failed to go back into the relay inbox.
	ErrRequeue    = errors.New("sender keys could not be re-queued")
	errKeyRotated = errors.New("own sender key rotated during send")
)

// Coordinator is what Send needs from the distribution service.
type Coordinator interface {
	domain.Coordinator
	LocalUser() (domain.UserID, bool)
}

// Service implements domain.GroupMessageService.
type Service struct {
	store       domain.SenderKeyStore
	coordinator Coordinator
	relay       domain.RelayClient
	log         *logging.Logger

	// Serialises Ingest.
	mu sync.Mutex
}

// New constructs a group message Service.
func New(
	store domain.SenderKeyStore,
	coordinator Coordinator,
	relay domain.RelayClient,
	log *logging.Logger,
) *Service {
	return &Service{
		store:       store,
		coordinator: coordinator,
		relay:       relay,
		log:         log,
	}
}

// Send encrypts plaintext for channel under our own sender key.
func (s *Service) Send(
	ctx context.Context,
	channel domain.ChannelID,
	plaintext []byte,
) (domain.GroupMessage, error) {
	user, ok := s.coordinator.LocalUser()
	if !ok {
		return domain.GroupMessage{}, ErrNoLocalUser
	}

	// A key rotated between ensure and seal gets one retry.
	for attempt := 0; ; attempt++ {
		key, err := s.coordinator.EnsureDistributed(ctx, channel)
		if err != nil {
			return domain.GroupMessage{}, err
		}

		msg := domain.GroupMessage{
			ChannelID:      channel,
			From:           user,
			DistributionID: key.DistributionID,
		}
		err = s.store.UpdateOwnKey(channel, func(k *domain.SenderKey) error {
			if k.DistributionID != key.DistributionID {
				return errKeyRotated
			}
			msg.Index = k.ChainIndex
			_, ct, err := senderchain.Seal(k, senderchain.AssociatedData(msg), plaintext)
			if err != nil {
				return err
			}
			msg.Ciphertext = ct
			return nil
		})
		if err == nil {
			return msg, nil
		}
		if attempt > 0 || !s.rotated(channel, err) {
			return domain.GroupMessage{}, fmt.Errorf("seal group message for %s: %w", channel, err)
		}
		s.log.Debugf("Own key for %s changed during send, retrying", channel)
	}
}

// rotated reports whether err came from the own key being replaced or
// invalidated after EnsureDistributed returned.
func (s *Service) rotated(channel domain.ChannelID, err error) bool {
	if errors.Is(err, errKeyRotated) {
		return true
	}
	_, ok := s.store.GetOwnKey(channel)
	return !ok
}

// Decrypt opens msg with the matching received sender key and advances that
// key past the message. Self-copies are never advanced so our whole history
// stays readable.
func (s *Service) Decrypt(msg domain.GroupMessage) (domain.DecryptedGroupMessage, error) {
	entry, ok := s.findEntry(msg)
	if !ok {
		return domain.DecryptedGroupMessage{}, fmt.Errorf("%w: %s from %s in %s",
			ErrUnknownDistribution, msg.DistributionID, msg.From, msg.ChannelID)
	}

	ad := senderchain.AssociatedData(msg)
	var plaintext []byte
	if user, ok := s.coordinator.LocalUser(); ok && entry.FromUserID == user {
		key := entry.Key.Clone()
		pt, err := senderchain.Open(&key, msg.Index, ad, msg.Ciphertext)
		if err != nil {
			return domain.DecryptedGroupMessage{}, err
		}
		plaintext = pt
	} else {
		err := s.store.UpdateReceivedKey(msg.ChannelID, msg.DistributionID,
			func(e *domain.ReceivedSenderKeyEntry) error {
				pt, err := senderchain.Open(&e.Key, msg.Index, ad, msg.Ciphertext)
				if err != nil {
					return err
				}
				plaintext = pt
				return nil
			})
		if err != nil {
			return domain.DecryptedGroupMessage{}, err
		}
	}

	return domain.DecryptedGroupMessage{
		ChannelID: msg.ChannelID,
		From:      msg.From,
		Plaintext: plaintext,
	}, nil
}

func (s *Service) findEntry(msg domain.GroupMessage) (domain.ReceivedSenderKeyEntry, bool) {
	for _, e := range s.store.ListReceivedKeys(msg.ChannelID) {
		if e.Key.DistributionID == msg.DistributionID && e.FromUserID == msg.From {
			return e, true
		}
	}
	return domain.ReceivedSenderKeyEntry{}, false
}

// Ingest drains pending sender key distributions addressed to us, keeps the
// ones signed by a current channel member and returns how many were new.
//
// Distributions that fail verification are logged and dropped. Those whose
// channel membership cannot be resolved go back into our relay inbox for
// the next Ingest.
func (s *Service) Ingest(ctx context.Context) (int, error) {
	user, ok := s.coordinator.LocalUser()
	if !ok {
		return 0, ErrNoLocalUser
	}

	dists, err := s.relay.FetchSenderKeys(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("fetch sender keys for %s: %w", user, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		members  = make(map[domain.ChannelID]map[domain.UserID]domain.Member)
		lookups  = make(map[domain.ChannelID]error)
		deferred []domain.SenderKeyDistribution
		added    int
	)
	for _, d := range dists {
		if err := lookups[d.ChannelID]; err != nil {
			deferred = append(deferred, d)
			continue
		}
		byUser, ok := members[d.ChannelID]
		if !ok {
			list, err := s.relay.ChannelMembers(ctx, d.ChannelID)
			if err != nil {
				s.log.Warningf("Deferring sender keys in %s: members lookup: %v", d.ChannelID, err)
				lookups[d.ChannelID] = err
				deferred = append(deferred, d)
				continue
			}
			byUser = make(map[domain.UserID]domain.Member, len(list))
			for _, m := range list {
				byUser[m.UserID] = m
			}
			members[d.ChannelID] = byUser
		}

		if err := verify(byUser, d); err != nil {
			s.log.Warningf("Dropping sender key %s from %s in %s: %v",
				d.DistributionID, d.From, d.ChannelID, err)
			continue
		}

		key := domain.SenderKey{
			DistributionID: d.DistributionID,
			ChainKey:       d.ChainKey,
			ChainIndex:     d.ChainIndex,
		}
		if s.store.AddReceivedKey(d.ChannelID, d.DistributionID, d.From, key) {
			added++
			s.log.Debugf("Recorded sender key %s from %s in %s", d.DistributionID, d.From, d.ChannelID)
		}
	}

	if err := s.requeue(ctx, user, deferred); err != nil {
		return added, err
	}
	return added, nil
}

// requeue puts distributions back into user's relay inbox.
func (s *Service) requeue(ctx context.Context, user domain.UserID, dists []domain.SenderKeyDistribution) error {
	var errs []error
	for _, d := range dists {
		if err := s.relay.DeliverSenderKey(ctx, user, d); err != nil {
			s.log.Errorf("Lost sender key %s from %s in %s: %v", d.DistributionID, d.From, d.ChannelID, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d: %w", ErrRequeue, len(errs), len(dists), errors.Join(errs...))
	}
	if len(dists) > 0 {
		s.log.Infof("Re-queued %d sender keys for %s", len(dists), user)
	}
	return nil
}

func verify(members map[domain.UserID]domain.Member, d domain.SenderKeyDistribution) error {
	m, ok := members[d.From]
	if !ok {
		return errors.New("sender is not a channel member")
	}
	if d.DistributionID.IsZero() || len(d.ChainKey) != domain.ChainKeySize {
		return errors.New("malformed distribution")
	}
	if !crypto.VerifyDistribution(m.SigningKey, d) {
		return errors.New("bad signature")
	}
	return nil
}

// Compile-time assertion that Service implements domain.GroupMessageService.
var _ domain.GroupMessageService = (*Service)(nil)

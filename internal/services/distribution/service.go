package distribution

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gopkg.in/op/go-logging.v1"

	"groupkeys/internal/crypto"
	"groupkeys/internal/domain"
	"groupkeys/internal/metrics"
)

// maxConcurrentDeliveries bounds parallel relay calls per distribution.
const maxConcurrentDeliveries = 8

var (
	// ErrGeneration wraps a failure to produce a new sender key. It is the
	// only failure EnsureDistributed reports besides context cancellation.
	ErrGeneration = errors.New("sender key generation failed")
	// ErrDistribution wraps membership lookup and delivery failures.
	ErrDistribution = errors.New("sender key distribution failed")
)

// Service coordinates own sender key generation, self-copies and fan-out.
type Service struct {
	store       domain.SenderKeyStore
	provider    domain.CryptoProvider
	distributor domain.Distributor
	log         *logging.Logger

	flights singleflight.Group

	mu        sync.RWMutex
	localUser domain.UserID
	signer    *domain.Ed25519Private
}

// New constructs a distribution Service.
func New(
	store domain.SenderKeyStore,
	provider domain.CryptoProvider,
	distributor domain.Distributor,
	log *logging.Logger,
) *Service {
	return &Service{
		store:       store,
		provider:    provider,
		distributor: distributor,
		log:         log,
	}
}

// SetLocalUser records who we are. signingKey, when non-nil, signs every
// distribution message.
func (s *Service) SetLocalUser(user domain.UserID, signingKey *domain.Ed25519Private) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.localUser = user
	s.signer = nil
	if signingKey != nil {
		k := *signingKey
		s.signer = &k
	}
}

// ClearLocalUser forgets the local user and signing key.
func (s *Service) ClearLocalUser() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signer != nil {
		*s.signer = domain.Ed25519Private{}
	}
	s.localUser = ""
	s.signer = nil
}

// LocalUser returns the local user id, if known.
func (s *Service) LocalUser() (domain.UserID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.localUser, s.localUser != ""
}

// EnsureDistributed returns the own sender key for channel, generating and
// distributing it first when needed.
//
// A key that fails to distribute is still returned; the channel stays
// unmarked so the next call retries distribution with the same key.
func (s *Service) EnsureDistributed(
	ctx context.Context,
	channel domain.ChannelID,
) (domain.SenderKey, error) {
	if key, ok := s.store.GetOwnKey(channel); ok && s.store.IsDistributed(channel) {
		return key, nil
	}

	// The shared attempt must outlive any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(string(channel), func() (any, error) {
		return s.ensure(flightCtx, channel)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.SenderKey{}, res.Err
		}
		return res.Val.(domain.SenderKey).Clone(), nil
	case <-ctx.Done():
		return domain.SenderKey{}, ctx.Err()
	}
}

func (s *Service) ensure(ctx context.Context, channel domain.ChannelID) (domain.SenderKey, error) {
	key, ok := s.store.GetOwnKey(channel)
	if ok && s.store.IsDistributed(channel) {
		return key, nil
	}

	if !ok {
		generated, err := s.provider.GenerateSenderKey()
		if err != nil {
			s.log.Errorf("Failed to generate sender key for %s: %v", channel, err)
			return domain.SenderKey{}, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		user, _ := s.LocalUser()
		// Own key and self-copy land together, before any network I/O.
		s.store.InstallOwnKey(channel, generated, user)
		metrics.SenderKeyGenerations.Inc()
		if user == "" {
			s.log.Warningf("Generated sender key %s for %s without a local user; no self-copy kept",
				generated.DistributionID, channel)
		} else {
			s.log.Debugf("Generated sender key %s for %s", generated.DistributionID, channel)
		}
		key = generated
	}

	if err := s.distribute(ctx, channel, key); err != nil {
		metrics.DistributionAttempts.WithLabelValues("failure").Inc()
		s.log.Warningf("Sender key %s for %s not distributed, will retry: %v",
			key.DistributionID, channel, err)
		return key, nil
	}
	metrics.DistributionAttempts.WithLabelValues("success").Inc()

	// Only mark the generation we actually sent.
	if !s.store.MarkDistributedIfCurrent(channel, key.DistributionID) {
		s.log.Infof("Sender key %s for %s was replaced during distribution; not marking",
			key.DistributionID, channel)
		return key, nil
	}
	s.log.Debugf("Distributed sender key %s for %s", key.DistributionID, channel)
	return key, nil
}

func (s *Service) distribute(ctx context.Context, channel domain.ChannelID, key domain.SenderKey) error {
	members, err := s.distributor.ChannelMembers(ctx, channel)
	if err != nil {
		return fmt.Errorf("%w: members of %s: %w", ErrDistribution, channel, err)
	}

	s.mu.RLock()
	msg := domain.SenderKeyDistribution{
		ChannelID:      channel,
		From:           s.localUser,
		DistributionID: key.DistributionID,
		ChainKey:       append([]byte(nil), key.ChainKey...),
		ChainIndex:     key.ChainIndex,
	}
	if s.signer != nil {
		crypto.SignDistribution(*s.signer, &msg)
	}
	s.mu.RUnlock()

	// Deliveries run in parallel; every failure is collected, none cancels
	// the others.
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxConcurrentDeliveries)
	for _, m := range members {
		if m.UserID == msg.From {
			continue
		}
		to := m.UserID
		g.Go(func() error {
			if err := s.distributor.DeliverSenderKey(ctx, to, msg); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("deliver to %s: %w", to, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDistribution, errors.Join(errs...))
	}
	return nil
}

// Invalidate drops the own key and distributed flag for channel. Received
// keys, including self-copies, are kept.
func (s *Service) Invalidate(channel domain.ChannelID) {
	s.flights.Forget(string(channel))
	s.store.RemoveOwnKey(channel)
	s.store.UnmarkDistributed(channel)
	s.log.Debugf("Invalidated own sender key for %s", channel)
}

// Compile-time assertion that Service implements domain.Coordinator.
var _ domain.Coordinator = (*Service)(nil)

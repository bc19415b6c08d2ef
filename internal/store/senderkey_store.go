package store

import (
	"errors"
	"sync"

	"groupkeys/internal/domain"
	"groupkeys/internal/util/memzero"
)

var (
	// ErrNoOwnKey is returned by UpdateOwnKey when the channel has no own key.
	ErrNoOwnKey = errors.New("no own sender key for channel")
	// ErrNoReceivedKey is returned by UpdateReceivedKey for an unknown
	// (channel, distribution id) pair.
	ErrNoReceivedKey = errors.New("no received sender key for distribution id")
)

// SenderKeyMemStore keeps own keys, received keys and the distributed set
// in memory. Keys passed in and handed out are always clones.
type SenderKeyMemStore struct {
	mu          sync.RWMutex
	own         map[domain.ChannelID]domain.SenderKey
	received    map[domain.ChannelID]map[domain.DistributionID]domain.ReceivedSenderKeyEntry
	distributed map[domain.ChannelID]struct{}
}

// NewSenderKeyMemStore returns an empty store.
func NewSenderKeyMemStore() *SenderKeyMemStore {
	s := &SenderKeyMemStore{}
	s.reset()
	return s
}

func (s *SenderKeyMemStore) reset() {
	s.own = make(map[domain.ChannelID]domain.SenderKey)
	s.received = make(map[domain.ChannelID]map[domain.DistributionID]domain.ReceivedSenderKeyEntry)
	s.distributed = make(map[domain.ChannelID]struct{})
}

// GetOwnKey returns a copy of the own key for channel.
func (s *SenderKeyMemStore) GetOwnKey(channel domain.ChannelID) (domain.SenderKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.own[channel]
	if !ok {
		return domain.SenderKey{}, false
	}
	return k.Clone(), true
}

// SetOwnKey replaces the own key for channel.
func (s *SenderKeyMemStore) SetOwnKey(channel domain.ChannelID, key domain.SenderKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.own[channel] = key.Clone()
}

// RemoveOwnKey drops the own key for channel. Received entries are kept.
func (s *SenderKeyMemStore) RemoveOwnKey(channel domain.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.own, channel)
}

// InstallOwnKey sets the own key and, if selfCopyFrom is known, the
// self-copy under a single lock so readers never see one without the other.
func (s *SenderKeyMemStore) InstallOwnKey(
	channel domain.ChannelID,
	key domain.SenderKey,
	selfCopyFrom domain.UserID,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.own[channel] = key.Clone()
	if selfCopyFrom != "" {
		s.addReceivedLocked(channel, key.DistributionID, selfCopyFrom, key)
	}
}

// UpdateOwnKey runs fn against a copy of the own key for channel and stores
// the result. Nothing changes if fn returns an error.
func (s *SenderKeyMemStore) UpdateOwnKey(
	channel domain.ChannelID,
	fn func(key *domain.SenderKey) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.own[channel]
	if !ok {
		return ErrNoOwnKey
	}
	k := stored.Clone()
	if err := fn(&k); err != nil {
		return err
	}
	memzero.Zero(stored.ChainKey)
	s.own[channel] = k
	return nil
}

// AddReceivedKey stores a deep copy of key under (channel, distributionID).
// It reports false, leaving the existing entry alone, if the pair is known.
func (s *SenderKeyMemStore) AddReceivedKey(
	channel domain.ChannelID,
	distributionID domain.DistributionID,
	from domain.UserID,
	key domain.SenderKey,
) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addReceivedLocked(channel, distributionID, from, key)
}

func (s *SenderKeyMemStore) addReceivedLocked(
	channel domain.ChannelID,
	distributionID domain.DistributionID,
	from domain.UserID,
	key domain.SenderKey,
) bool {
	byID, ok := s.received[channel]
	if !ok {
		byID = make(map[domain.DistributionID]domain.ReceivedSenderKeyEntry)
		s.received[channel] = byID
	}
	if _, exists := byID[distributionID]; exists {
		return false
	}
	clone := key.Clone()
	clone.DistributionID = distributionID
	byID[distributionID] = domain.ReceivedSenderKeyEntry{
		ChannelID:  channel,
		FromUserID: from,
		Key:        clone,
	}
	return true
}

// ListReceivedKeys returns copies of every entry for channel, in no
// particular order.
func (s *SenderKeyMemStore) ListReceivedKeys(channel domain.ChannelID) []domain.ReceivedSenderKeyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.received[channel]
	out := make([]domain.ReceivedSenderKeyEntry, 0, len(byID))
	for _, e := range byID {
		out = append(out, e.Clone())
	}
	return out
}

// UpdateReceivedKey runs fn against the entry for (channel, distributionID).
// The entry's channel and distribution id cannot be changed through fn.
func (s *SenderKeyMemStore) UpdateReceivedKey(
	channel domain.ChannelID,
	distributionID domain.DistributionID,
	fn func(entry *domain.ReceivedSenderKeyEntry) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.received[channel][distributionID]
	if !ok {
		return ErrNoReceivedKey
	}
	e := stored.Clone()
	if err := fn(&e); err != nil {
		return err
	}
	memzero.Zero(stored.Key.ChainKey)
	e.ChannelID = channel
	e.Key.DistributionID = distributionID
	s.received[channel][distributionID] = e
	return nil
}

// MarkDistributed records that the current own key for channel has been
// fanned out.
func (s *SenderKeyMemStore) MarkDistributed(channel domain.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.distributed[channel] = struct{}{}
}

// MarkDistributedIfCurrent marks channel distributed only if its own key
// still has distributionID. The check and the mark share one lock.
func (s *SenderKeyMemStore) MarkDistributedIfCurrent(
	channel domain.ChannelID,
	distributionID domain.DistributionID,
) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.own[channel]
	if !ok || k.DistributionID != distributionID {
		return false
	}
	s.distributed[channel] = struct{}{}
	return true
}

// UnmarkDistributed clears the distributed flag for channel.
func (s *SenderKeyMemStore) UnmarkDistributed(channel domain.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.distributed, channel)
}

// IsDistributed reports whether channel is marked distributed.
func (s *SenderKeyMemStore) IsDistributed(channel domain.ChannelID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.distributed[channel]
	return ok
}

// Counts returns the sizes of the three structures.
func (s *SenderKeyMemStore) Counts() domain.StoreCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	received := 0
	for _, byID := range s.received {
		received += len(byID)
	}
	return domain.StoreCounts{
		OwnKeys:     len(s.own),
		Received:    received,
		Distributed: len(s.distributed),
	}
}

// Export returns a deep copy of the store contents.
func (s *SenderKeyMemStore) Export() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		Version:     domain.SnapshotVersion,
		OwnKeys:     make(map[domain.ChannelID]domain.SenderKey, len(s.own)),
		Received:    make([]domain.ReceivedSenderKeyEntry, 0),
		Distributed: make([]domain.ChannelID, 0, len(s.distributed)),
	}
	for ch, k := range s.own {
		snap.OwnKeys[ch] = k.Clone()
	}
	for _, byID := range s.received {
		for _, e := range byID {
			snap.Received = append(snap.Received, e.Clone())
		}
	}
	for ch := range s.distributed {
		snap.Distributed = append(snap.Distributed, ch)
	}
	return snap
}

// Replace discards the current contents and loads snapshot in their place.
func (s *SenderKeyMemStore) Replace(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for ch, k := range snapshot.OwnKeys {
		s.own[ch] = k.Clone()
	}
	for _, e := range snapshot.Received {
		s.addReceivedLocked(e.ChannelID, e.Key.DistributionID, e.FromUserID, e.Key)
	}
	for _, ch := range snapshot.Distributed {
		s.distributed[ch] = struct{}{}
	}
}

// Clear empties the store.
func (s *SenderKeyMemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
}

// Compile-time assertion that SenderKeyMemStore implements domain.SenderKeyStore.
var _ domain.SenderKeyStore = (*SenderKeyMemStore)(nil)

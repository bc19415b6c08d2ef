package store_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupkeys/internal/domain"
	"groupkeys/internal/store"
)

func testKey(id byte) domain.SenderKey {
	return domain.SenderKey{
		DistributionID: domain.DistributionID{id},
		ChainKey:       bytes.Repeat([]byte{id}, domain.ChainKeySize),
	}
}

func TestSenderKeyMemStore_OwnKeys(t *testing.T) {
	s := store.NewSenderKeyMemStore()

	_, ok := s.GetOwnKey("ch-1")
	require.False(t, ok)

	k := testKey(1)
	s.SetOwnKey("ch-1", k)
	got, ok := s.GetOwnKey("ch-1")
	require.True(t, ok)
	require.True(t, got.Equal(k))

	// Mutating the caller's buffer must not reach the store.
	k.ChainKey[0] ^= 0xff
	got, _ = s.GetOwnKey("ch-1")
	require.NotEqual(t, k.ChainKey[0], got.ChainKey[0])

	s.RemoveOwnKey("ch-1")
	s.RemoveOwnKey("ch-1")
	_, ok = s.GetOwnKey("ch-1")
	require.False(t, ok)
}

func TestSenderKeyMemStore_AddReceivedKey_DedupByChannelAndID(t *testing.T) {
	s := store.NewSenderKeyMemStore()
	k1, k2 := testKey(1), testKey(2)

	require.True(t, s.AddReceivedKey("ch-1", k1.DistributionID, "alice", k1))
	require.False(t, s.AddReceivedKey("ch-1", k1.DistributionID, "mallory", k2))
	require.True(t, s.AddReceivedKey("ch-1", k2.DistributionID, "alice", k2))
	require.True(t, s.AddReceivedKey("ch-2", k1.DistributionID, "alice", k1))

	entries := s.ListReceivedKeys("ch-1")
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.UserID("alice"), e.FromUserID)
		assert.Equal(t, domain.ChannelID("ch-1"), e.ChannelID)
	}
	require.Equal(t, 3, s.Counts().Received)
	require.Empty(t, s.ListReceivedKeys("unknown"))
}

func TestSenderKeyMemStore_InstallOwnKey_IndependentSelfCopy(t *testing.T) {
	s := store.NewSenderKeyMemStore()
	k := testKey(9)

	s.InstallOwnKey("ch-1", k, "user-1")

	entries := s.ListReceivedKeys("ch-1")
	require.Len(t, entries, 1)
	require.Equal(t, domain.UserID("user-1"), entries[0].FromUserID)
	require.True(t, entries[0].Key.Equal(k))

	require.NoError(t, s.UpdateOwnKey("ch-1", func(own *domain.SenderKey) error {
		own.ChainKey[0] ^= 0xff
		own.ChainIndex = 5
		return nil
	}))

	own, _ := s.GetOwnKey("ch-1")
	self := s.ListReceivedKeys("ch-1")[0]
	require.Equal(t, uint32(5), own.ChainIndex)
	require.Equal(t, uint32(0), self.Key.ChainIndex)
	require.NotEqual(t, own.ChainKey[0], self.Key.ChainKey[0])
}

func TestSenderKeyMemStore_InstallOwnKey_NoUser(t *testing.T) {
	s := store.NewSenderKeyMemStore()
	s.InstallOwnKey("ch-1", testKey(1), "")

	counts := s.Counts()
	require.Equal(t, 1, counts.OwnKeys)
	require.Equal(t, 0, counts.Received)
}

func TestSenderKeyMemStore_UpdateErrors(t *testing.T) {
	s := store.NewSenderKeyMemStore()

	err := s.UpdateOwnKey("ch-1", func(*domain.SenderKey) error { return nil })
	require.ErrorIs(t, err, store.ErrNoOwnKey)

	err = s.UpdateReceivedKey("ch-1", domain.DistributionID{1}, func(*domain.ReceivedSenderKeyEntry) error { return nil })
	require.ErrorIs(t, err, store.ErrNoReceivedKey)

	k := testKey(1)
	s.AddReceivedKey("ch-1", k.DistributionID, "bob", k)
	boom := errors.New("boom")
	err = s.UpdateReceivedKey("ch-1", k.DistributionID, func(e *domain.ReceivedSenderKeyEntry) error {
		e.Key.ChainIndex = 99
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, s.ListReceivedKeys("ch-1")[0].Key.ChainIndex)

	s.SetOwnKey("ch-1", k)
	err = s.UpdateOwnKey("ch-1", func(own *domain.SenderKey) error {
		own.ChainKey[0] ^= 0xff
		return boom
	})
	require.ErrorIs(t, err, boom)
	own, _ := s.GetOwnKey("ch-1")
	require.True(t, own.Equal(k))
}

func TestSenderKeyMemStore_DistributedAndClear(t *testing.T) {
	s := store.NewSenderKeyMemStore()
	s.InstallOwnKey("ch-1", testKey(1), "user-1")
	s.InstallOwnKey("ch-2", testKey(2), "user-1")
	s.MarkDistributed("ch-1")
	s.MarkDistributed("ch-2")
	s.UnmarkDistributed("ch-2")

	require.True(t, s.IsDistributed("ch-1"))
	require.False(t, s.IsDistributed("ch-2"))
	require.Equal(t, domain.StoreCounts{OwnKeys: 2, Received: 2, Distributed: 1}, s.Counts())

	s.Clear()
	require.Equal(t, domain.StoreCounts{}, s.Counts())
}

func TestSenderKeyMemStore_MarkDistributedIfCurrent(t *testing.T) {
	s := store.NewSenderKeyMemStore()
	require.False(t, s.MarkDistributedIfCurrent("ch-1", domain.DistributionID{1}))
	require.False(t, s.IsDistributed("ch-1"))

	s.InstallOwnKey("ch-1", testKey(1), "user-1")
	require.False(t, s.MarkDistributedIfCurrent("ch-1", domain.DistributionID{2}))
	require.False(t, s.IsDistributed("ch-1"))

	require.True(t, s.MarkDistributedIfCurrent("ch-1", domain.DistributionID{1}))
	require.True(t, s.IsDistributed("ch-1"))

	s.RemoveOwnKey("ch-1")
	s.UnmarkDistributed("ch-1")
	require.False(t, s.MarkDistributedIfCurrent("ch-1", domain.DistributionID{1}))
	require.False(t, s.IsDistributed("ch-1"))
}

func TestSenderKeyMemStore_ExportReplace(t *testing.T) {
	s := store.NewSenderKeyMemStore()
	s.InstallOwnKey("ch-1", testKey(1), "user-1")
	s.AddReceivedKey("ch-1", domain.DistributionID{7}, "bob", testKey(7))
	s.MarkDistributed("ch-1")

	snap := s.Export()
	require.Equal(t, uint8(domain.SnapshotVersion), snap.Version)
	require.Len(t, snap.OwnKeys, 1)
	require.Len(t, snap.Received, 2)
	require.Equal(t, []domain.ChannelID{"ch-1"}, snap.Distributed)

	other := store.NewSenderKeyMemStore()
	other.InstallOwnKey("stale", testKey(3), "user-1")
	other.Replace(snap)

	require.Equal(t, s.Counts(), other.Counts())
	_, ok := other.GetOwnKey("stale")
	require.False(t, ok)
	require.ElementsMatch(t, s.ListReceivedKeys("ch-1"), other.ListReceivedKeys("ch-1"))

	// The snapshot is detached from both stores.
	snap.OwnKeys["ch-1"].ChainKey[0] ^= 0xff
	own, _ := other.GetOwnKey("ch-1")
	require.Equal(t, byte(1), own.ChainKey[0])
}

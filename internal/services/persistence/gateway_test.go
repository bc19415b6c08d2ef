package persistence_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupkeys/internal/codec"
	"groupkeys/internal/crypto"
	"groupkeys/internal/domain"
	"groupkeys/internal/log"
	"groupkeys/internal/metrics"
	"groupkeys/internal/services/persistence"
	"groupkeys/internal/store"
)

type fixture struct {
	keys     *store.SenderKeyMemStore
	records  *store.BoltRecordStore
	provider *crypto.Provider
	gw       *persistence.Gateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	records, err := store.OpenBoltRecordStore(filepath.Join(t.TempDir(), "groupkeys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = records.Close() })

	keys := store.NewSenderKeyMemStore()
	provider := crypto.NewProvider()
	return &fixture{
		keys:     keys,
		records:  records,
		provider: provider,
		gw: persistence.New(records, codec.New(keys), provider,
			log.Discard().GetLogger("persistence")),
	}
}

func identityKey(t *testing.T) domain.X25519Private {
	t.Helper()
	priv, _, err := crypto.GenerateX25519()
	require.NoError(t, err)
	return priv
}

func (f *fixture) populate(t *testing.T, channels ...domain.ChannelID) {
	t.Helper()
	for _, ch := range channels {
		own, err := f.provider.GenerateSenderKey()
		require.NoError(t, err)
		f.keys.InstallOwnKey(ch, own, "user-1")
		f.keys.MarkDistributed(ch)

		peer, err := f.provider.GenerateSenderKey()
		require.NoError(t, err)
		f.keys.AddReceivedKey(ch, peer.DistributionID, "user-2", peer)
	}
}

func assertSameState(t *testing.T, want, got domain.Snapshot) {
	t.Helper()
	assert.Equal(t, want.OwnKeys, got.OwnKeys)
	assert.ElementsMatch(t, want.Received, got.Received)
	assert.ElementsMatch(t, want.Distributed, got.Distributed)
}

func TestGateway_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1", "ch-2")
	before := f.keys.Export()

	require.True(t, f.gw.Persist(ctx, "user-1", k))
	f.keys.Clear()
	require.Equal(t, domain.StoreCounts{}, f.keys.Counts())

	res := f.gw.LoadDetailed(ctx, "user-1", k)
	require.NoError(t, res.Err)
	require.Equal(t, persistence.LoadRestored, res.Reason)
	assertSameState(t, before, f.keys.Export())
}

func TestGateway_LoadReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1")
	before := f.keys.Export()
	require.True(t, f.gw.Persist(ctx, "user-1", k))

	f.populate(t, "ch-extra")
	require.True(t, f.gw.Load(ctx, "user-1", k))

	_, ok := f.keys.GetOwnKey("ch-extra")
	assert.False(t, ok)
	assertSameState(t, before, f.keys.Export())
}

func TestGateway_NoRecord(t *testing.T) {
	f := newFixture(t)
	loads := testutil.ToFloat64(metrics.BackupLoads.WithLabelValues("no-record"))

	res := f.gw.LoadDetailed(context.Background(), "nobody", identityKey(t))
	assert.False(t, res.Restored())
	assert.Equal(t, persistence.LoadNoRecord, res.Reason)
	assert.NoError(t, res.Err)
	assert.Equal(t, loads+1, testutil.ToFloat64(metrics.BackupLoads.WithLabelValues("no-record")))
}

func TestGateway_WrongKeyLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k1, k2 := identityKey(t), identityKey(t)
	f.populate(t, "ch-1")
	require.True(t, f.gw.Persist(ctx, "user-1", k1))

	f.populate(t, "ch-2")
	current := f.keys.Export()

	res := f.gw.LoadDetailed(ctx, "user-1", k2)
	assert.False(t, res.Restored())
	assert.Equal(t, persistence.LoadDecryptFailed, res.Reason)
	assert.ErrorIs(t, res.Err, crypto.ErrDecrypt)
	assertSameState(t, current, f.keys.Export())
}

func TestGateway_RecordBoundToUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1")
	require.True(t, f.gw.Persist(ctx, "user-1", k))

	rec, ok, err := f.records.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	rec.UserID = "user-9"
	require.NoError(t, f.records.Put(ctx, rec))

	assert.False(t, f.gw.Load(ctx, "user-9", k))
}

func TestGateway_CorruptedCiphertext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1")
	require.True(t, f.gw.Persist(ctx, "user-1", k))

	rec, ok, err := f.records.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	rec.Ciphertext[len(rec.Ciphertext)/2] ^= 0x80
	require.NoError(t, f.records.Put(ctx, rec))

	var res persistence.LoadResult
	require.NotPanics(t, func() { res = f.gw.LoadDetailed(ctx, "user-1", k) })
	assert.Equal(t, persistence.LoadDecryptFailed, res.Reason)

	rec.Ciphertext = rec.Ciphertext[:3]
	require.NoError(t, f.records.Put(ctx, rec))
	assert.False(t, f.gw.Load(ctx, "user-1", k))
}

func TestGateway_UndecodablePlaintext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)

	key, err := f.provider.KeyedHash([]byte(persistence.StorageKeyContext), k[:], f.provider.KeySize())
	require.NoError(t, err)
	nonce, err := f.provider.RandomNonce()
	require.NoError(t, err)
	ct, err := f.provider.Encrypt([]byte{0xff, 0xfe, 0x00}, key, nonce, []byte("user-1"))
	require.NoError(t, err)
	require.NoError(t, f.records.Put(ctx, domain.EncryptedRecord{
		UserID:     "user-1",
		Ciphertext: ct,
		Nonce:      nonce,
	}))

	res := f.gw.LoadDetailed(ctx, "user-1", k)
	assert.Equal(t, persistence.LoadDecodeFailed, res.Reason)
	assert.Error(t, res.Err)
}

func TestGateway_PersistReplacesPriorRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1")
	require.True(t, f.gw.Persist(ctx, "user-1", k))

	f.populate(t, "ch-2")
	latest := f.keys.Export()
	require.True(t, f.gw.Persist(ctx, "user-1", k))

	f.keys.Clear()
	require.True(t, f.gw.Load(ctx, "user-1", k))
	assertSameState(t, latest, f.keys.Export())
}

func TestGateway_Clear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1")
	require.True(t, f.gw.Persist(ctx, "user-1", k))
	require.True(t, f.gw.Persist(ctx, "user-2", k))

	f.gw.Clear(ctx, "user-1")
	assert.False(t, f.gw.Load(ctx, "user-1", k))
	assert.True(t, f.gw.Load(ctx, "user-2", k))

	f.gw.Clear(ctx, "")
	assert.False(t, f.gw.Load(ctx, "user-2", k))
}

type failingRecords struct {
	domain.RecordStore
	putErr error
	getErr error
}

func (r failingRecords) Put(ctx context.Context, rec domain.EncryptedRecord) error {
	if r.putErr != nil {
		return r.putErr
	}
	return r.RecordStore.Put(ctx, rec)
}

func (r failingRecords) Get(ctx context.Context, user domain.UserID) (domain.EncryptedRecord, bool, error) {
	if r.getErr != nil {
		return domain.EncryptedRecord{}, false, r.getErr
	}
	return r.RecordStore.Get(ctx, user)
}

func TestGateway_WriteFailureKeepsPriorRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	k := identityKey(t)
	f.populate(t, "ch-1")
	before := f.keys.Export()
	require.True(t, f.gw.Persist(ctx, "user-1", k))

	broken := persistence.New(
		failingRecords{RecordStore: f.records, putErr: errors.New("disk full")},
		codec.New(f.keys), f.provider, log.Discard().GetLogger("persistence"))
	f.populate(t, "ch-2")

	res := broken.PersistDetailed(ctx, "user-1", k)
	assert.False(t, res.Persisted())
	assert.Equal(t, persistence.PersistWriteFailed, res.Reason)

	f.keys.Clear()
	require.True(t, f.gw.Load(ctx, "user-1", k))
	assertSameState(t, before, f.keys.Export())
}

func TestGateway_ReadFailure(t *testing.T) {
	f := newFixture(t)
	broken := persistence.New(
		failingRecords{RecordStore: f.records, getErr: errors.New("io error")},
		codec.New(f.keys), f.provider, log.Discard().GetLogger("persistence"))

	res := broken.LoadDetailed(context.Background(), "user-1", identityKey(t))
	assert.Equal(t, persistence.LoadReadFailed, res.Reason)
	assert.False(t, res.Restored())
}

func TestReasonStrings(t *testing.T) {
	assert.Equal(t, "restored", persistence.LoadRestored.String())
	assert.Equal(t, "restore-failed", persistence.LoadRestoreFailed.String())
	assert.Equal(t, "persisted", persistence.PersistOK.String())
	assert.Equal(t, "write-failed", persistence.PersistWriteFailed.String())
}

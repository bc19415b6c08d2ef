package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"groupkeys/internal/domain"
	"groupkeys/internal/store"
)

func openRecords(t *testing.T, path string) *store.BoltRecordStore {
	t.Helper()
	s, err := store.OpenBoltRecordStore(path)
	require.NoError(t, err, "OpenBoltRecordStore")
	return s
}

func TestBoltRecordStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")
	s := openRecords(t, path)

	_, ok, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	rec := domain.EncryptedRecord{
		UserID:     "user-1",
		Ciphertext: []byte{1, 2, 3},
		Nonce:      []byte{4, 5, 6},
		UpdatedAt:  time.Unix(1700000000, 123456789).UTC(),
	}
	require.NoError(t, s.Put(ctx, rec))

	rec.Ciphertext = []byte{9, 9}
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{9, 9}, got.Ciphertext)
	require.Equal(t, rec.Nonce, got.Nonce)
	require.True(t, rec.UpdatedAt.Equal(got.UpdatedAt))

	require.NoError(t, s.Delete(ctx, "user-1"))
	require.NoError(t, s.Delete(ctx, "user-1"))
	_, ok, err = s.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.ErrorIs(t, s.Put(ctx, domain.EncryptedRecord{}), store.ErrEmptyUserID)
	require.NoError(t, s.Close())
}

func TestBoltRecordStore_ClearAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	s := openRecords(t, path)
	for _, u := range []domain.UserID{"a", "b"} {
		require.NoError(t, s.Put(ctx, domain.EncryptedRecord{UserID: u, Ciphertext: []byte(u)}))
	}
	require.NoError(t, s.Close())

	s = openRecords(t, path)
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Clear(ctx))
	for _, u := range []domain.UserID{"a", "b"} {
		_, ok, err := s.Get(ctx, u)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.NoError(t, s.Close())
}

func TestBoltRecordStore_CancelledContext(t *testing.T) {
	s := openRecords(t, filepath.Join(t.TempDir(), "records.db"))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Put(ctx, domain.EncryptedRecord{UserID: "a"}), context.Canceled)
	_, _, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, context.Canceled)
}

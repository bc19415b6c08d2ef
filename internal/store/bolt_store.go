package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"groupkeys/internal/domain"
)

const (
	recordsBucket  = "records"
	metadataBucket = "metadata"
	versionKey     = "version"

	// recordSchemaVersion is bumped whenever the bucket layout changes.
	recordSchemaVersion = 1
)

var (
	// ErrIncompatibleSchema is returned by OpenBoltRecordStore for databases
	// written by a newer layout.
	ErrIncompatibleSchema = errors.New("record store: incompatible schema version")
	// ErrEmptyUserID is returned when a record has no owner.
	ErrEmptyUserID = errors.New("record store: empty user id")
)

// recordEncMode keeps UpdatedAt at full precision.
var recordEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// BoltRecordStore keeps one EncryptedRecord per user in a bbolt database.
// Every method runs in exactly one transaction.
type BoltRecordStore struct {
	db *bolt.DB
}

// OpenBoltRecordStore opens (or creates) the database at path and upgrades
// its schema.
func OpenBoltRecordStore(path string) (*BoltRecordStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	s := &BoltRecordStore{db: db}
	if err := s.upgrade(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltRecordStore) upgrade() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(recordsBucket)); err != nil {
			return err
		}
		if b := meta.Get([]byte(versionKey)); b != nil {
			if len(b) != 1 || b[0] > recordSchemaVersion {
				return fmt.Errorf("%w: %v", ErrIncompatibleSchema, b)
			}
			return nil
		}
		return meta.Put([]byte(versionKey), []byte{recordSchemaVersion})
	})
}

// Get returns the record for user and whether it exists.
func (s *BoltRecordStore) Get(
	ctx context.Context,
	user domain.UserID,
) (domain.EncryptedRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.EncryptedRecord{}, false, err
	}
	var (
		rec   domain.EncryptedRecord
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(recordsBucket)).Get([]byte(user))
		if raw == nil {
			return nil
		}
		found = true
		return cbor.Unmarshal(raw, &rec)
	})
	if err != nil {
		return domain.EncryptedRecord{}, false, err
	}
	return rec, found, nil
}

// Put replaces the record for record.UserID.
func (s *BoltRecordStore) Put(ctx context.Context, record domain.EncryptedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.UserID == "" {
		return ErrEmptyUserID
	}
	raw, err := recordEncMode.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).Put([]byte(record.UserID), raw)
	})
}

// Delete removes the record for user, if any.
func (s *BoltRecordStore) Delete(ctx context.Context, user domain.UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).Delete([]byte(user))
	})
}

// Clear removes every record.
func (s *BoltRecordStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(recordsBucket)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(recordsBucket))
		return err
	})
}

// Close flushes and closes the database.
func (s *BoltRecordStore) Close() error {
	return s.db.Close()
}

// Compile-time assertion that BoltRecordStore implements domain.RecordStore.
var _ domain.RecordStore = (*BoltRecordStore)(nil)

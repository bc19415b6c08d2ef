package persistence

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/op/go-logging.v1"

	"groupkeys/internal/domain"
	"groupkeys/internal/metrics"
	"groupkeys/internal/util/memzero"
)

// StorageKeyContext separates the backup storage key from any other use
// of the identity private key.
const StorageKeyContext = "groupkeys/backup-storage-key/v1"

// Gateway implements domain.PersistenceGateway.
type Gateway struct {
	records  domain.RecordStore
	codec    domain.SnapshotCodec
	provider domain.CryptoProvider
	log      *logging.Logger
	now      func() time.Time
}

// New constructs a Gateway. The codec is injected here so the gateway never
// has to reach back into the session that owns it.
func New(
	records domain.RecordStore,
	codec domain.SnapshotCodec,
	provider domain.CryptoProvider,
	log *logging.Logger,
) *Gateway {
	return &Gateway{
		records:  records,
		codec:    codec,
		provider: provider,
		log:      log,
		now:      time.Now,
	}
}

// Persist writes the current snapshot for user. It reports whether the
// record landed; failures leave the prior record untouched.
func (g *Gateway) Persist(
	ctx context.Context,
	user domain.UserID,
	identityPrivateKey domain.X25519Private,
) bool {
	return g.PersistDetailed(ctx, user, identityPrivateKey).Persisted()
}

// PersistDetailed is Persist with the reason attached.
func (g *Gateway) PersistDetailed(
	ctx context.Context,
	user domain.UserID,
	identityPrivateKey domain.X25519Private,
) PersistResult {
	res := g.persist(ctx, user, identityPrivateKey)
	metrics.BackupWrites.WithLabelValues(res.Reason.String()).Inc()
	if res.Err != nil {
		g.log.Warningf("Backup for %s not written (%s): %v", user, res.Reason, res.Err)
	} else {
		g.log.Debugf("Backup for %s written", user)
	}
	return res
}

func (g *Gateway) persist(
	ctx context.Context,
	user domain.UserID,
	priv domain.X25519Private,
) PersistResult {
	defer memzero.Zero32((*[32]byte)(&priv))

	snap, err := g.codec.BuildSnapshot()
	if err != nil {
		return PersistResult{PersistSnapshotFailed, err}
	}
	plaintext, err := g.codec.Marshal(snap)
	if err != nil {
		return PersistResult{PersistSnapshotFailed, err}
	}
	defer memzero.Zero(plaintext)

	key, err := g.storageKey(priv)
	if err != nil {
		return PersistResult{PersistEncryptFailed, err}
	}
	defer memzero.Zero(key)

	nonce, err := g.provider.RandomNonce()
	if err != nil {
		return PersistResult{PersistEncryptFailed, err}
	}
	ct, err := g.provider.Encrypt(plaintext, key, nonce, []byte(user))
	if err != nil {
		return PersistResult{PersistEncryptFailed, err}
	}

	rec := domain.EncryptedRecord{
		UserID:     user,
		Ciphertext: ct,
		Nonce:      nonce,
		UpdatedAt:  g.now().UTC(),
	}
	if err := g.records.Put(ctx, rec); err != nil {
		return PersistResult{PersistWriteFailed, err}
	}
	return PersistResult{Reason: PersistOK}
}

// Load restores the snapshot stored for user, replacing in-memory state
// wholesale. It returns false for a missing record and for any read,
// decrypt or decode failure, in which case in-memory state is untouched.
func (g *Gateway) Load(
	ctx context.Context,
	user domain.UserID,
	identityPrivateKey domain.X25519Private,
) bool {
	return g.LoadDetailed(ctx, user, identityPrivateKey).Restored()
}

// LoadDetailed is Load with the reason attached.
func (g *Gateway) LoadDetailed(
	ctx context.Context,
	user domain.UserID,
	identityPrivateKey domain.X25519Private,
) LoadResult {
	res := g.load(ctx, user, identityPrivateKey)
	metrics.BackupLoads.WithLabelValues(res.Reason.String()).Inc()
	switch {
	case res.Err != nil:
		g.log.Warningf("Backup for %s unusable (%s), starting cold: %v", user, res.Reason, res.Err)
	case res.Reason == LoadNoRecord:
		g.log.Infof("No backup for %s, starting cold", user)
	default:
		g.log.Debugf("Backup for %s restored", user)
	}
	return res
}

func (g *Gateway) load(
	ctx context.Context,
	user domain.UserID,
	priv domain.X25519Private,
) LoadResult {
	defer memzero.Zero32((*[32]byte)(&priv))

	rec, ok, err := g.records.Get(ctx, user)
	if err != nil {
		return LoadResult{LoadReadFailed, err}
	}
	if !ok {
		return LoadResult{Reason: LoadNoRecord}
	}

	key, err := g.storageKey(priv)
	if err != nil {
		return LoadResult{LoadDecryptFailed, err}
	}
	defer memzero.Zero(key)

	plaintext, err := g.provider.Decrypt(rec.Ciphertext, key, rec.Nonce, []byte(user))
	if err != nil {
		return LoadResult{LoadDecryptFailed, err}
	}
	defer memzero.Zero(plaintext)

	snap, err := g.codec.Unmarshal(plaintext)
	if err != nil {
		return LoadResult{LoadDecodeFailed, err}
	}
	if err := g.codec.RestoreSnapshot(snap); err != nil {
		return LoadResult{LoadRestoreFailed, err}
	}
	return LoadResult{Reason: LoadRestored}
}

// Clear deletes the record for user, or every record when user is empty.
func (g *Gateway) Clear(ctx context.Context, user domain.UserID) {
	var err error
	if user == "" {
		err = g.records.Clear(ctx)
	} else {
		err = g.records.Delete(ctx, user)
	}
	if err != nil {
		g.log.Warningf("Failed to clear backup for %q: %v", user, err)
		return
	}
	g.log.Debugf("Cleared backup for %q", user)
}

func (g *Gateway) storageKey(priv domain.X25519Private) ([]byte, error) {
	key, err := g.provider.KeyedHash([]byte(StorageKeyContext), priv[:], g.provider.KeySize())
	if err != nil {
		return nil, fmt.Errorf("derive storage key: %w", err)
	}
	return key, nil
}

// Compile-time assertion that Gateway implements domain.PersistenceGateway.
var _ domain.PersistenceGateway = (*Gateway)(nil)

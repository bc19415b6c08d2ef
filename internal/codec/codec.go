// Package codec builds, restores and serialises the crypto session snapshot.
package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"groupkeys/internal/domain"
)

var (
	// ErrUnsupportedVersion is returned for snapshots written by a newer build.
	ErrUnsupportedVersion = errors.New("codec: unsupported snapshot version")
	// ErrMalformed is returned when a snapshot fails validation.
	ErrMalformed = errors.New("codec: malformed snapshot")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding keeps identical state byte-identical.
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 20,
	}).DecMode(); err != nil {
		panic(err)
	}
}

// Codec snapshots a SenderKeyStore.
type Codec struct {
	store domain.SenderKeyStore
}

// New returns a Codec bound to store.
func New(store domain.SenderKeyStore) *Codec {
	return &Codec{store: store}
}

// BuildSnapshot captures the current store contents.
func (c *Codec) BuildSnapshot() (domain.Snapshot, error) {
	return c.store.Export(), nil
}

// RestoreSnapshot validates snapshot and replaces the store contents with it.
func (c *Codec) RestoreSnapshot(snapshot domain.Snapshot) error {
	if err := validate(snapshot); err != nil {
		return err
	}
	c.store.Replace(snapshot)
	return nil
}

// Marshal encodes snapshot as CBOR.
func (c *Codec) Marshal(snapshot domain.Snapshot) ([]byte, error) {
	if snapshot.Version == 0 {
		snapshot.Version = domain.SnapshotVersion
	}
	return encMode.Marshal(snapshot)
}

// Unmarshal decodes and validates a CBOR snapshot.
func (c *Codec) Unmarshal(b []byte) (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := decMode.Unmarshal(b, &snap); err != nil {
		return domain.Snapshot{}, err
	}
	if err := validate(snap); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func validate(snap domain.Snapshot) error {
	if snap.Version == 0 || snap.Version > domain.SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	for ch, k := range snap.OwnKeys {
		if ch == "" || len(k.ChainKey) != domain.ChainKeySize {
			return fmt.Errorf("%w: own key for %q", ErrMalformed, ch)
		}
	}
	for _, e := range snap.Received {
		if e.ChannelID == "" || len(e.Key.ChainKey) != domain.ChainKeySize {
			return fmt.Errorf("%w: received key %s", ErrMalformed, e.Key.DistributionID)
		}
	}
	return nil
}

// Compile-time assertion that Codec implements domain.SnapshotCodec.
var _ domain.SnapshotCodec = (*Codec)(nil)

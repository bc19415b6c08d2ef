package persistence

// LoadReason says how a Load resolved.
type LoadReason int

const (
	LoadRestored LoadReason = iota
	LoadNoRecord
	LoadReadFailed
	LoadDecryptFailed
	LoadDecodeFailed
	LoadRestoreFailed
)

func (r LoadReason) String() string {
	switch r {
	case LoadRestored:
		return "restored"
	case LoadNoRecord:
		return "no-record"
	case LoadReadFailed:
		return "read-failed"
	case LoadDecryptFailed:
		return "decrypt-failed"
	case LoadDecodeFailed:
		return "decode-failed"
	case LoadRestoreFailed:
		return "restore-failed"
	default:
		return "unknown"
	}
}

// LoadResult is the outcome of LoadDetailed. Err is nil for LoadRestored
// and LoadNoRecord.
type LoadResult struct {
	Reason LoadReason
	Err    error
}

// Restored reports whether in-memory state was replaced from the backup.
func (r LoadResult) Restored() bool { return r.Reason == LoadRestored }

// PersistReason says how a Persist resolved.
type PersistReason int

const (
	PersistOK PersistReason = iota
	PersistSnapshotFailed
	PersistEncryptFailed
	PersistWriteFailed
)

func (r PersistReason) String() string {
	switch r {
	case PersistOK:
		return "persisted"
	case PersistSnapshotFailed:
		return "snapshot-failed"
	case PersistEncryptFailed:
		return "encrypt-failed"
	case PersistWriteFailed:
		return "write-failed"
	default:
		return "unknown"
	}
}

// PersistResult is the outcome of PersistDetailed.
type PersistResult struct {
	Reason PersistReason
	Err    error
}

// Persisted reports whether the record landed.
func (r PersistResult) Persisted() bool { return r.Reason == PersistOK }

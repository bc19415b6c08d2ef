// Package store provides the in-memory and durable stores behind groupkeys.
//
// It contains concrete implementations of the domain storage interfaces.
// All methods are concurrency-safe via internal locking.
//
// The package includes:
//   - Own and received sender keys plus the distributed-channel set, held
//     in memory (SenderKeyMemStore)
//   - Encrypted session backups, one record per user, in a bbolt database
//     (BoltRecordStore)
//   - The passphrase-encrypted identity file (IdentityFileStore)
package store

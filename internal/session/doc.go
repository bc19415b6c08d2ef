// Package session owns the lifecycle of the crypto session: which user is
// logged in, their identity, and the sender key state restored for them.
//
// Login restores the encrypted backup (or starts cold), Checkpoint persists
// it, and Logout tears everything down, optionally wiping the backup.
package session

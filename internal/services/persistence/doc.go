// Package persistence round-trips the crypto session snapshot through the
// durable record store, encrypted under a key derived from the user's
// identity private key.
//
// Load and Persist never fail loudly. A missing, unreadable or undecryptable
// record resolves to a cold start; a failed write leaves state memory-only.
// LoadDetailed and PersistDetailed expose the reason for diagnostics.
package persistence

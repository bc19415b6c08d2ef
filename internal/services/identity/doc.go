// Package identity manages creation, encryption and loading of the local
// identity.
//
// It enforces passphrase policy, generates the X25519 key whose private half
// derives the backup storage key, and the Ed25519 key that signs sender key
// distributions. Keys are persisted via the domain.IdentityStore.
package identity

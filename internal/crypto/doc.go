// Package crypto exposes the primitives used by groupkeys.
//
// Contents
//
//   - Sender key generation with random UUID distribution ids, keyed
//     BLAKE2b and XChaCha20-Poly1305 sealing (Provider)
//   - X25519 and Ed25519 identity key generation (GenerateX25519,
//     GenerateEd25519)
//   - Signing and verifying sender key distributions (SignDistribution,
//     VerifyDistribution)
//   - Fingerprints over both identity public keys (Fingerprint)
//
// # Notes
//
// Identity keys are fixed-size array types defined in internal/domain.
// Callers should treat returned secrets as sensitive and wipe them with
// memzero.Zero when practical.
package crypto

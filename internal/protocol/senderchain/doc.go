// Package senderchain implements the symmetric sender key chain used for
// group messages.
//
// Each message advances an HKDF chain so that message keys are forward
// secure. A receiver may skip ahead up to MaxSkip messages; keys for
// indices below the current chain index are gone.
//
// Concurrency: SenderKey values are NOT safe for concurrent use. Callers
// mutate them through the store's Update methods.
package senderchain

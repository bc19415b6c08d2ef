// Package groupmsg encrypts and decrypts group messages under sender keys.
//
// Send makes sure the channel's own key is distributed, then advances the
// own chain. Decrypt looks the distribution id up among the received keys;
// our own past messages decrypt through the self-copy. Ingest pulls pending
// sender key distributions from the relay and records the verified ones.
package groupmsg

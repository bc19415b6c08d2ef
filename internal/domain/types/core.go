package types

// UserID identifies an authenticated user on the relay.
type UserID string

// String returns the string form of the user id.
func (u UserID) String() string { return string(u) }

// ChannelID identifies a group channel.
type ChannelID string

// String returns the string form of the channel id.
func (c ChannelID) String() string { return string(c) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

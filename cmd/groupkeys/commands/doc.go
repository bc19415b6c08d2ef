// Package commands defines the groupkeys CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create the local identity and record the user id
//   - fingerprint    Print the identity fingerprint
//   - join           Publish yourself as a member of a channel
//   - ensure         Make sure your sender key for a channel is distributed
//   - invalidate     Drop your sender key for a channel
//   - send           Encrypt a group message
//   - recv           Ingest pending sender keys and decrypt group messages
//   - keys           Show sender key state for a channel
//   - logout         Close the session, optionally wiping the backup
//
// # Implementation
//
// The root command loads the TOML config and builds the dependency graph
// before any subcommand runs. Session commands log in (restoring the
// encrypted backup), do their work and checkpoint the state again.
package commands

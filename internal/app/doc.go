// Package app loads configuration and wires application dependencies for
// the CLI.
//
// Config is TOML. NewWire builds the concrete stores, relay client and
// services from a validated Config and exposes them via the Wire struct
// for commands to use.
package app

// Package main runs the in-memory HTTP relay used by groupkeys during
// development and tests. It publishes channel member lists and queues
// sender key distributions for recipients until they fetch them.
//
// HTTP API
//
//	GET /channels/{channel}/members
//	    Return the member list (user id, identity key, signing key).
//
//	PUT /channels/{channel}/members
//	    Replace the member list for {channel}.
//
//	POST /sender-keys/{user}
//	    Enqueue a SenderKeyDistribution destined to {user}.
//
//	GET /sender-keys/{user}
//	    Return and drop every queued distribution for {user}.
//
//	GET /metrics
//	    Prometheus metrics.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - The default listen address is :8080.
//
// The relay never sees plaintext. It does see chain keys in the
// distributions it queues, so it must be trusted or run on a private
// network until distributions travel over pairwise encrypted sessions.
package main

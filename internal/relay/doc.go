// Package relay provides an HTTP implementation of the domain.RelayClient
// interface used by groupkeys, and the in-memory relay server it talks to.
//
// The relay publishes channel membership and queues sender key
// distributions per recipient until they are fetched.
//
// Supported operations include:
//   - Publishing a channel's member list.
//   - Fetching a channel's member list.
//   - Delivering a sender key distribution to a member.
//   - Draining pending distributions for a user.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as *StatusError with the HTTP
// method, full URL, and status text to aid diagnostics.
package relay

// Package distribution makes sure a channel has a usable, distributed own
// sender key before a group message is sent.
//
// Concurrent callers for the same channel share one generation and
// distribution attempt. Generation failures are returned; distribution
// failures are logged and retried on the next call.
package distribution

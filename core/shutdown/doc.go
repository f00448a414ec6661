// Package shutdown coordinates a graceful stop of long-lived client connections.
//
// A Coordinator moves once through three states: accepting, draining and
// terminated. Connections register with Track while the server accepts
// them. Drain flips the coordinator to draining, sends every tracked peer
// one server_shutdown notice, waits for the configured deadline and then
// force-closes whatever is still tracked.
//
//	coord := shutdown.New(shutdown.WithDeadline(10 * time.Second))
//	if !coord.Track(sess) {
//		// server is draining; refuse the connection
//	}
//	defer coord.Untrack(sess)
//
//	// on SIGTERM:
//	_ = coord.Drain(context.Background())
//
// The coordinator implements protocol.Gate through Draining.
package shutdown

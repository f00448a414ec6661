// Package protocol implements the client-facing message protocol of the broker.
//
// A client sends JSON frames of the form
//
//	{"type": "subscribe", "topic": "orders", "client_id": "c1", "last_n": 5, "request_id": "r1"}
//
// and receives ack, error, event, info and pong frames. Every outbound frame
// carries a ts field with an RFC 3339 UTC timestamp in millisecond precision.
//
// A Session binds one connection to a broker registry. It is transport
// agnostic: the gateway supplies a Transport that serializes writes on the
// underlying socket, and feeds inbound frames to Session.Handle in order.
//
//	sess := protocol.NewSession(transport, registry,
//		protocol.WithGate(coordinator),
//		protocol.WithLogger(log),
//	)
//	defer sess.Close()
//	for {
//		data, err := readFrame()
//		if err != nil {
//			return err
//		}
//		if err := sess.Handle(ctx, data); err != nil {
//			return err
//		}
//	}
//
// Session implements broker.Conn, so the registry delivers events straight to it.
package protocol

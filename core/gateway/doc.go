// Package gateway serves broker sessions over WebSocket.
//
// The gateway upgrades HTTP requests with gorilla/websocket, authenticates
// the client once at connect time, then pumps inbound frames into a
// protocol.Session until either side closes. Writes on a socket are
// serialized and bounded by a write timeout; a ping ticker keeps idle
// connections alive and detects dead peers.
//
// Mount the gateway on a router:
//
//	gw := gateway.New(registry,
//		gateway.WithConfig(cfg),
//		gateway.WithAuthenticator(keys.Request),
//		gateway.WithTracker(coordinator),
//		gateway.WithObserver(metrics),
//	)
//	r.Get("/ws", func(*router.Context) handler.Response { return gw.Upgrade() })
//
// Clients failing authentication still complete the handshake, receive one
// UNAUTHORIZED error frame and are disconnected. While the tracker is
// draining, upgrades are refused with 503.
package gateway

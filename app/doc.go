// Package app assembles the broker service: configuration, logging, the
// topic registry, the WebSocket gateway, the admin API, metrics and the
// shutdown sequence.
//
//	a, err := app.NewApp()
//	if err != nil {
//		return err
//	}
//	return a.Run(ctx)
//
// Run keeps the listener open while WebSocket sessions drain, so late
// clients get a 503 and /health/ready reports not ready until the server
// stops.
package app

// Package broker is the topic registry of the pub/sub service.
//
// A Registry owns topics. Each topic keeps a bounded history of recent
// messages, replayed to new subscribers on request, and a table of
// subscribers keyed by client id. Every subscriber has its own bounded
// queue drained by a dedicated goroutine, so a slow connection never blocks
// publishers or other subscribers and each subscriber observes messages in
// publish order.
//
//	reg := broker.New(broker.WithLogger(log))
//	_ = reg.CreateTopic("orders")
//	reg.Subscribe("orders", conn, 10) // replay the last 10 messages
//	reg.Publish("orders", msg)
//
// All registry state sits behind one lock. Operations mutate and return;
// network writes happen only in subscriber goroutines and in DeleteTopic
// after the lock is released.
//
// When a subscriber queue is full the oldest undelivered message is dropped.
// With the Disconnect policy the subscriber is removed instead and its
// connection is closed with ErrSlowConsumer.
package broker

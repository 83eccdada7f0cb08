// Package client implements the Socket.IO connection lifecycle over a
// WebSocket transport.
//
// A Client dials the engine endpoint, completes the handshake, joins
// one namespace, and keeps the session alive with ping probes. Inbound
// packets are routed to an event registry shared by lifecycle events
// (connect, open, close, error, handshake, ping, pong, probe_success,
// probe_error) and application events named by the server.
//
// Usage:
//
//	c := client.New(client.DefaultConfig().WithNamespace("/chat"))
//	defer c.Close()
//
//	off := c.On("news", func(args ...any) {
//		// args are json.RawMessage values; an AckResponder is
//		// appended when the server asked for an acknowledgement.
//	})
//	defer off()
//
//	c.On(client.EventOpen, func(args ...any) {
//		c.Emit("hello", "world")
//	})
//
//	if err := c.Open(ctx, "https://example.com"); err != nil {
//		log.Fatal(err)
//	}
//
// Acknowledgements:
//
//	ack, err := c.EmitWithAck("sum", 1, 2)
//	if err != nil {
//		return err
//	}
//	reply, err := ack.Wait(ctx)
//
// All errors from background loops are recoverable and surface as the
// "error" event; only caller misuse, such as closing a closed client,
// returns an error synchronously.
package client

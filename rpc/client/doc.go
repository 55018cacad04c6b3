// Package client implements the participant side of the hangman game.
// It turns player actions into requests for the coordinator and incoming
// frames into typed events for a listener.
//
// Key Components:
//
//   - NewRPCClient: Factory function that creates a participant on top of a
//     transport.IRPCClientTransport and a serializer.
//
//   - IListener: Receives connect, message and disconnect events. The events
//     are handed over to a single worker, so the I/O loop never waits for
//     the listener and the listener sees them in order.
//
//   - Render: Turns an event into the text shown to the player.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Transport: common.TransportConf{Endpoint: "localhost:9091"},
//	}
//
//	c := client.NewRPCClient(
//	  config,
//	  tcp.NewTCPClientTransport(),
//	  serializer.NewFrameSerializer(common.DefaultMaxFrameBytes),
//	  listener,
//	)
//	defer c.Shutdown()
//
//	if err := c.Connect(); err != nil {
//	  log.Fatal(err)
//	}
//	_ = c.Username("ALICE")
//	_ = c.Start()
package client

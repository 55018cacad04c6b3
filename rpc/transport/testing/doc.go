// Package testing provides a standardised conformance suite for transport
// implementations that satisfy the transport.IRPCServerTransport and
// transport.IRPCClientTransport interfaces.
//
// The suite starts a real coordinator transport, connects real participant
// transports and raw sockets to it, and checks framing, ordering, broadcast
// fan-out, partial send resumption, disconnect handling and the outbound
// queue limit.
//
// Example usage:
//
//	func Test(t *testing.T) {
//		transporttesting.RunTransportTests(t, transporttesting.TransportFactory{
//			Name:      "TCP",
//			Network:   "tcp",
//			NewServer: NewTCPServerTransport,
//			NewClient: NewTCPClientTransport,
//			Endpoint:  func(t *testing.T) string { return "127.0.0.1:0" },
//		})
//	}
package testing

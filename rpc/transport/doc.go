// Package transport defines the interfaces and abstractions for the
// connections between a hangman coordinator and its participants.
//
// The package focuses on:
//   - Clear contracts for the coordinator (many connections) and participant
//     (one connection) transports
//   - Event handlers that are invoked from the I/O loop
//   - Connection identities that stay unique for the lifetime of the process
//
// Key Components:
//
//   - IRPCServerTransport: Accepts connections, delivers frames to an
//     IServerHandler and offers direct sends, broadcasts and disconnects that
//     are safe to call from any goroutine.
//
//   - IRPCClientTransport: Connects to a coordinator, delivers frames to an
//     IClientHandler and sends records.
//
//   - ConnID: Opaque connection identity. Handlers and workers only ever
//     refer to connections by ID; a send to an ID that is gone is a no-op.
package transport

// Package unix implements the transport of the hangman coordinator and
// participant over Unix domain sockets, for processes running on the same
// machine.
//
// This package extends the base transport layer with Unix socket-specific
// connectors while inheriting the event loop, framing and queueing from the
// base package.
//
// Key Components:
//
//   - clientConnector: Connects to a socket path
//
//   - serverConnector: Replaces a stale socket file, listens on the path and
//     removes the file again when the transport stops
package unix

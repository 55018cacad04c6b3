// Package tcp implements the TCP socket transport of the hangman coordinator
// and participant. It provides concrete implementations of the base package's
// connector interfaces; the event loop, framing and queueing are inherited
// from the base package.
//
// Key Components:
//
//   - clientConnector: Starts a non-blocking connect to host:port
//
//   - serverConnector: Binds and listens on host:port (SO_REUSEADDR) and
//     applies TCPConf and SocketConf options to accepted connections
//
// Options are only applied when configured; a zero value keeps the OS default
// (TCPLingerSec <= 0 keeps the default linger behaviour).
package tcp

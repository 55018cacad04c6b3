// Package base provides the connection layer shared by all socket based
// transports of the hangman coordinator and participant, independent of the
// specific address family (TCP, Unix sockets). Protocol specific connectors
// only create and tune sockets; everything else lives here.
//
// The package focuses on:
//   - One single threaded event loop per transport (epoll, level triggered)
//   - Non-blocking reads with frame reassembly across arbitrary read boundaries
//   - Per connection outbound queues with partial send resumption
//   - Thread safe sends, broadcasts and disconnects from worker goroutines
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different address families.
//
//   - Registry: The set of live connections. Broadcasts iterate it while
//     connections come and go; removal is idempotent.
//
//   - OutboundQueue: Lock-free FIFO of encoded records. The head record keeps
//     its send offset when the socket buffer is full.
//
//   - eventLoop: Owns every file descriptor. Workers enqueue records and mark
//     the connection dirty, then wake the loop through an eventfd; the loop
//     arms write interest for dirty connections with a non-empty queue and
//     drops it again once the queue drained.
//
// Connection lifecycle:
//
//	CONNECTING -> READ_INTEREST <-> WRITE_INTEREST -> DISCONNECTED
//
// DISCONNECTED is terminal. End of stream, any I/O error, an explicit
// disconnect or an outbound queue overflow move a connection there, and the
// handler's disconnect callback runs exactly once afterwards.
//
// Thread Safety:
//
//	Send, Broadcast, ForEachLive, Disconnect and Stop may be called from any
//	goroutine. Handler callbacks run on the loop goroutine and must not block.
package base

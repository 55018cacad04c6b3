// Package rpc provides the communication layer between the hangman
// coordinator and its participants.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including the
//     command protocol, configuration structures and logging.
//
//   - serializer: The length prefixed frame codec that converts between field
//     tuples and wire records.
//
//   - transport: Connection abstractions with a single threaded event loop and
//     pluggable socket connectors (TCP, Unix sockets).
//
//   - client: The participant, turning player actions into requests and
//     frames into events for a listener.
//
//   - server: The coordinator, routing requests to the game session and
//     broadcasting the results.
package rpc

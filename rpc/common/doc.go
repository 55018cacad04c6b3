// Package common provides the data structures shared by the coordinator and
// participant sides of the hangman transport.
//
// The package focuses on:
//   - The command protocol (Command tags and the Message variant)
//   - Configuration structures for coordinator and participant
//   - Logging integrated with the dragonboat logger API and backed by zerolog
//
// Key Components:
//
//   - Message: Parsed form of one frame. RequestFields/EventFields produce the
//     wire fields, ParseRequest/ParseEvent convert them back. Requests flow from
//     participant to coordinator, events the other way; some tags (GUESS, USER,
//     START, ...) exist in both directions with different field shapes.
//
//   - ServerConfig / ClientConfig: Process configuration including the
//     TransportConf limits (frame size, queued bytes) and socket options.
//
//   - Logger: InitLoggers installs a zerolog backed factory for every named
//     package logger (transport, server, client, pool, game, cmd).
package common

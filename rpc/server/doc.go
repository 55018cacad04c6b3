// Package server implements the hangman coordinator on top of a server
// transport. It parses the requests of every participant, runs them on a
// keyed worker pool and answers with direct replies or broadcasts.
//
// The package focuses on:
//   - Keeping the I/O loop free of game logic (requests run on workers)
//   - Per participant ordering (the worker pool is keyed by connection id)
//   - A consistent broadcast order for START and GUESS (one router mutex)
//
// Key Components:
//
//   - IRPCServerAdapter: Interface between the transport callbacks and a
//     domain collaborator, with Join, Handle and Leave.
//
//   - NewGameServerAdapter: Factory function creating the adapter that runs
//     a game.ISession. It keeps the label and score of every participant and
//     announces departures no matter how a connection ended.
//
//   - NewRPCServer: Factory function creating a coordinator with the specified
//     transport, serializer and session.
//
// Usage Example:
//
//	s := server.NewRPCServer(
//	  common.ServerConfig{Transport: common.TransportConf{Endpoint: ":9091"}, Workers: 4},
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewFrameSerializer(common.DefaultMaxFrameBytes),
//	  game.NewSession(game.NewWordList(game.DefaultWords...)),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatal(err)
//	}
package server

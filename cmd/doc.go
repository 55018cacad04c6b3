// Package cmd implements the command-line interface of dHangman. It provides
// a small command tree for running the coordinator and for joining it as a
// player.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the coordinator (optionally with a prometheus endpoint)
//   - play: Interactive line interpreter for players (CONNECT, USER, START, GUESS, ...)
//   - bench: Load generator measuring SCORE round trips over many connections
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See hangman -help for a list of all commands.
package cmd

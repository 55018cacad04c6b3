// Package game implements the hangman session shared by all participants of a
// coordinator.
//
// A session holds at most one running round. Starting a round draws a word
// from an IWordSource; the players collectively get as many attempts as the
// word has letters. A guess is either a single letter (guessing a letter twice
// is free, a miss costs one attempt) or a whole word (a miss costs one attempt,
// a hit reveals everything). Every state change is reported as an immutable
// Snapshot.
//
// The session only knows about rounds. Scores and participant names are kept
// by the coordinator, which also decides when a finished round is stopped.
package game

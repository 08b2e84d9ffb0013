// Package session holds the pure workflow logic for one user's rating
// session: the stage enumeration, the durable Session snapshot, and the
// Machine that validates incoming events and advances the snapshot.
//
// Nothing in this package touches storage or the transport. The Machine
// returns facts to persist (ratings, favorite selections) and the caller is
// responsible for applying them durably before rendering the next prompt.
// Events that do not match the grammar for the current stage fail with
// ErrWrongStage so callers can drop duplicate or late deliveries without side
// effects.
//
// Randomized theme choice and asset shuffling go through the Randomizer
// interface so tests can pin deterministic permutations.
package session

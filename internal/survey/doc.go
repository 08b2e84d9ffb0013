// Package survey orchestrates one user turn at a time: it restores the
// persisted session, runs the decoded event through the state machine,
// applies writes in rating-then-snapshot order, and renders the next prompt.
package survey

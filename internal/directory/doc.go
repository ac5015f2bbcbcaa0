// Package directory implements the post-office protocol that tells every
// rank which other ranks hold the same id and which of them owns it.
//
// Each id is routed to a single directory rank. That rank sees every holder
// of the id, orders the holders with a seeded shuffle and returns the list to
// all of them, so every holder receives the same list. The first entry is the
// owner. Shuffling spreads ownership over the ranks instead of favouring the
// lowest one.
package directory

// Package indexmap describes how a set of indices is distributed over the
// ranks of a communicator.
//
// Each rank owns a contiguous block of global indices and additionally holds
// ghost copies of indices owned elsewhere. An IndexMap records the owned
// range, every ghost's (global index, owner) pair and the forward scatter
// pattern: for each rank that ghosts local data, which owned indices it
// holds. Topologies keep one IndexMap per dimension.
package indexmap

// Package renumber assigns contiguous local indices to the vertices of a rank
// and rewrites its cells in terms of them.
//
// Owned vertices are numbered in the order they are first met in the cell
// list, the exclusive scan of owned counts gives the global offset, and ghost
// vertices are appended in the order their numbers arrive.
package renumber

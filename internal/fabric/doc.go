// Package fabric restricts the numbering exchange to the ranks a rank
// actually shares vertices with.
//
// A Fabric is a bidirectional neighbourhood over the union of a rank's
// sharing lists (plus, when ghost cells are kept, the ranks it exchanges
// cells with). Two rounds run on it: owners announce the global numbers of
// their shared vertices, then ranks forward the numbers of vertices in cells
// they ghost to other ranks. Each round is a single collective exchange.
package fabric

// Package ownership classifies the global vertex ids referenced by a rank's
// cells and tracks their state while the renumbering protocol runs.
//
// States move Unresolved/OwnedUnshared -> OwnedShared -> Resolved for owned
// ids and Unresolved -> Ghost for ids owned elsewhere. When the protocol
// completes every id reachable from a retained cell is Resolved or Ghost.
package ownership

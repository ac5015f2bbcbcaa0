// Package phase runs topology construction as a fixed sequence of named
// steps. Each step is timed, traced and logged; running a step out of order
// is an error, which keeps the collective call sequence identical on all
// ranks.
package phase

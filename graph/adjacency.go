package graph

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidOffsets is returned when an offsets array does not describe a
// valid compressed row layout for the accompanying data array.
var ErrInvalidOffsets = errors.New("graph: invalid adjacency offsets")

// Integer is the set of link value types an AdjacencyList can hold.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// AdjacencyList stores node -> links relations in compressed row layout.
//
// The links of node i are array[offsets[i]:offsets[i+1]]. The order of links
// within a node is preserved exactly as given; for cell-vertex lists it encodes
// the orientation of the cell.
type AdjacencyList[T Integer] struct {
	array   []T
	offsets []int32
}

// New creates an AdjacencyList from a flat data array and its offsets.
// offsets must be non-decreasing, start at 0 and end at len(array).
func New[T Integer](array []T, offsets []int32) (*AdjacencyList[T], error) {
	if len(offsets) == 0 {
		if len(array) != 0 {
			return nil, fmt.Errorf("%w: empty offsets with %d values", ErrInvalidOffsets, len(array))
		}
		offsets = []int32{0}
	}
	if offsets[0] != 0 || int(offsets[len(offsets)-1]) != len(array) {
		return nil, fmt.Errorf("%w: offsets span [%d, %d], data has %d values",
			ErrInvalidOffsets, offsets[0], offsets[len(offsets)-1], len(array))
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("%w: decreasing at node %d", ErrInvalidOffsets, i-1)
		}
	}
	return &AdjacencyList[T]{array: array, offsets: offsets}, nil
}

// FromLists builds an AdjacencyList from one slice of links per node.
func FromLists[T Integer](lists [][]T) *AdjacencyList[T] {
	offsets := make([]int32, len(lists)+1)
	n := 0
	for i, l := range lists {
		n += len(l)
		offsets[i+1] = int32(n)
	}
	array := make([]T, 0, n)
	for _, l := range lists {
		array = append(array, l...)
	}
	return &AdjacencyList[T]{array: array, offsets: offsets}
}

// Uniform builds an AdjacencyList where every node has exactly width links.
// len(array) must be a multiple of width.
func Uniform[T Integer](array []T, width int) (*AdjacencyList[T], error) {
	if width <= 0 || len(array)%width != 0 {
		return nil, fmt.Errorf("%w: %d values cannot be split into nodes of width %d",
			ErrInvalidOffsets, len(array), width)
	}
	n := len(array) / width
	offsets := make([]int32, n+1)
	for i := range offsets {
		offsets[i] = int32(i * width)
	}
	return &AdjacencyList[T]{array: array, offsets: offsets}, nil
}

// Identity returns the list where node i links only to itself.
func Identity[T Integer](n int) *AdjacencyList[T] {
	array := make([]T, n)
	offsets := make([]int32, n+1)
	for i := range n {
		array[i] = T(i)
		offsets[i+1] = int32(i + 1)
	}
	return &AdjacencyList[T]{array: array, offsets: offsets}
}

// NumNodes returns the number of nodes.
func (a *AdjacencyList[T]) NumNodes() int {
	if a == nil {
		return 0
	}
	return len(a.offsets) - 1
}

// NumLinks returns the number of links of node i.
func (a *AdjacencyList[T]) NumLinks(i int) int {
	return int(a.offsets[i+1] - a.offsets[i])
}

// Links returns the links of node i. The returned slice aliases internal
// storage and must not be modified.
func (a *AdjacencyList[T]) Links(i int) []T {
	return a.array[a.offsets[i]:a.offsets[i+1]:a.offsets[i+1]]
}

// Array returns the flat link array.
func (a *AdjacencyList[T]) Array() []T { return a.array }

// Offsets returns the offsets array (len NumNodes()+1).
func (a *AdjacencyList[T]) Offsets() []int32 { return a.offsets }

// Head returns a list restricted to the first n nodes. Storage is shared.
func (a *AdjacencyList[T]) Head(n int) *AdjacencyList[T] {
	end := a.offsets[n]
	return &AdjacencyList[T]{array: a.array[:end:end], offsets: a.offsets[: n+1 : n+1]}
}

// Equal reports whether two lists have the same nodes and links.
func (a *AdjacencyList[T]) Equal(b *AdjacencyList[T]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.offsets, b.offsets) && slices.Equal(a.array, b.array)
}

// String renders the list as one bracketed group per node.
func (a *AdjacencyList[T]) String() string {
	s := "<AdjacencyList"
	for i := range a.NumNodes() {
		s += fmt.Sprintf(" %d:%v", i, a.Links(i))
	}
	return s + ">"
}

// Transpose returns the reverse relation: for each target value in [0, n),
// the nodes that link to it, in ascending node order.
func Transpose[T Integer](a *AdjacencyList[T], n int) *AdjacencyList[int32] {
	counts := make([]int32, n+1)
	for _, v := range a.array {
		counts[int(v)+1]++
	}
	for i := 1; i <= n; i++ {
		counts[i] += counts[i-1]
	}
	offsets := slices.Clone(counts)
	array := make([]int32, len(a.array))
	for node := range a.NumNodes() {
		for _, v := range a.Links(node) {
			array[counts[int(v)]] = int32(node)
			counts[int(v)]++
		}
	}
	return &AdjacencyList[int32]{array: array, offsets: offsets}
}

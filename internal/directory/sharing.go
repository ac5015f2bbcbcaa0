package directory

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Sharing is the result of SharingRanks: for each queried id its ordered list
// of sharing ranks. The first entry is the owner.
type Sharing struct {
	rank  int
	ranks map[int64][]int
}

// NewSharing builds a Sharing from explicit lists.
func NewSharing(rank int, ranks map[int64][]int) *Sharing {
	return &Sharing{rank: rank, ranks: ranks}
}

// Len returns the number of ids.
func (s *Sharing) Len() int { return len(s.ranks) }

// Ranks returns the ordered sharing list of id, or nil for unknown ids.
func (s *Sharing) Ranks(id int64) []int { return s.ranks[id] }

// Owner returns the agreed owner of id.
func (s *Sharing) Owner(id int64) (int, bool) {
	r := s.ranks[id]
	if len(r) == 0 {
		return 0, false
	}
	return r[0], true
}

// IDs returns the ids in ascending order.
func (s *Sharing) IDs() []int64 {
	ids := make([]int64, 0, len(s.ranks))
	for id := range s.ranks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Neighbors returns the union of all sharing lists without this rank.
func (s *Sharing) Neighbors() *roaring.Bitmap {
	b := roaring.New()
	for _, r := range s.ranks {
		for _, p := range r {
			b.Add(uint32(p))
		}
	}
	b.Remove(uint32(s.rank))
	return b
}

// NumOwned returns how many ids this rank owns.
func (s *Sharing) NumOwned() int {
	n := 0
	for _, r := range s.ranks {
		if len(r) > 0 && r[0] == s.rank {
			n++
		}
	}
	return n
}

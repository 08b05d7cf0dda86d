package models

import "fmt"

// CutSequence is the ordered list of cut ids on a job. Sequence order
// is render order. Reordering goes through MoveUp/MoveDown/Remove so
// the invariants (no duplicate ids, untouched elements keep their
// relative order) hold by construction.
type CutSequence struct {
	ids []int64
}

func NewCutSequence(ids []int64) (*CutSequence, error) {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate cut id %d", id)
		}
		seen[id] = struct{}{}
	}
	s := &CutSequence{ids: make([]int64, len(ids))}
	copy(s.ids, ids)
	return s, nil
}

// IDs returns the sequence in render order.
func (s *CutSequence) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *CutSequence) Len() int { return len(s.ids) }

func (s *CutSequence) Contains(id int64) bool {
	return s.indexOf(id) >= 0
}

func (s *CutSequence) indexOf(id int64) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// MoveUp swaps the cut with its predecessor. Moving the first element
// is a no-op.
func (s *CutSequence) MoveUp(id int64) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("cut id %d not in sequence", id)
	}
	if i > 0 {
		s.ids[i-1], s.ids[i] = s.ids[i], s.ids[i-1]
	}
	return nil
}

// MoveDown swaps the cut with its successor. Moving the last element
// is a no-op.
func (s *CutSequence) MoveDown(id int64) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("cut id %d not in sequence", id)
	}
	if i < len(s.ids)-1 {
		s.ids[i], s.ids[i+1] = s.ids[i+1], s.ids[i]
	}
	return nil
}

func (s *CutSequence) Remove(id int64) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("cut id %d not in sequence", id)
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return nil
}

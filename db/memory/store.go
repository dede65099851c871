// Package memory is an in-process store honouring the same contract as the
// PostgreSQL storage: uniqueness, cascades, atomic multi-row writes and the
// RFP availability predicate. It backs tests and STORAGE_DRIVER=memory.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"procurement/models"
)

type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	users         map[int64]models.User
	projects      map[int64]models.Project
	products      map[int64]models.Product
	rfps          map[int64]models.RFP
	rfpItems      map[int64]models.RFPItem
	proposals     map[int64]models.Proposal
	proposalItems map[int64]models.ProposalItem
}

func NewStore() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[int64]models.User),
		projects:      make(map[int64]models.Project),
		products:      make(map[int64]models.Product),
		rfps:          make(map[int64]models.RFP),
		rfpItems:      make(map[int64]models.RFPItem),
		proposals:     make(map[int64]models.Proposal),
		proposalItems: make(map[int64]models.ProposalItem),
	}
}

// SetClock replaces the timestamp source used for created/updated fields.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// sortedValues returns map values ordered by id ascending.
func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func order[T any](items []T, page models.Page, key func(a, b T) int, id func(T) int64) {
	slices.SortStableFunc(items, func(a, b T) int {
		c := key(a, b)
		if c == 0 {
			c = cmp.Compare(id(a), id(b))
		}
		if page.SortOrder == "asc" {
			return c
		}
		return -c
	})
}

func paginate[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	return items[start:end]
}

// contains reports a case-insensitive substring match in any of the fields.
func contains(term string, fields ...*string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), term) {
			return true
		}
	}
	return false
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

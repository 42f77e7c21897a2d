package streamlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process StreamLog used by tests and by the replay
// CLI's --local-store mode (spec.md §6.5 implies the harness must be
// runnable without a live store instance). It implements the exact same
// pending-entries/claim-stale semantics as RedisStore, just backed by a
// mutex-guarded map instead of XREADGROUP/XCLAIM.
type MemoryStore struct {
	mu      sync.Mutex
	streams map[string]*memStream
	seq     int64
}

type memStream struct {
	entries []Entry
	groups  map[string]*memGroup
}

type memGroup struct {
	nextIndex int // index into entries not yet delivered to anyone
	pending   map[Offset]*pendingEntry
}

type pendingEntry struct {
	entry    Entry
	owner    string
	claimed  time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string]*memStream)}
}

func (s *MemoryStore) stream(name string) *memStream {
	st, ok := s.streams[name]
	if !ok {
		st = &memStream{groups: make(map[string]*memGroup)}
		s.streams[name] = st
	}
	return st
}

func (s *MemoryStore) Append(_ context.Context, stream string, payload []byte) (Offset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	off := Offset(fmt.Sprintf("%020d", s.seq))
	st := s.stream(stream)
	st.entries = append(st.entries, Entry{Offset: off, Bytes: append([]byte(nil), payload...)})
	return off, nil
}

func (s *MemoryStore) ReadRange(_ context.Context, stream string, from Offset, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stream(stream)
	out := make([]Entry, 0, limit)
	for _, e := range st.entries {
		if from != "" && e.Offset <= from {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateGroup(_ context.Context, stream, group string, start GroupStart, at Offset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stream(stream)
	if _, ok := st.groups[group]; ok {
		return nil // idempotent.
	}
	nextIndex := 0
	switch start {
	case StartEnd:
		nextIndex = len(st.entries)
	case StartOffset:
		for i, e := range st.entries {
			if e.Offset > at {
				nextIndex = i
				break
			}
			nextIndex = i + 1
		}
	}
	st.groups[group] = &memGroup{nextIndex: nextIndex, pending: make(map[Offset]*pendingEntry)}
	return nil
}

func (s *MemoryStore) GroupRead(_ context.Context, stream, group, consumer string, count int, _ time.Duration) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stream(stream)
	g, ok := st.groups[group]
	if !ok {
		return nil, fmt.Errorf("streamlog: group %q not created on stream %q", group, stream)
	}
	var out []Entry
	for g.nextIndex < len(st.entries) && len(out) < count {
		e := st.entries[g.nextIndex]
		g.nextIndex++
		g.pending[e.Offset] = &pendingEntry{entry: e, owner: consumer, claimed: nowFunc()}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) Ack(_ context.Context, stream, group string, offset Offset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stream(stream)
	g, ok := st.groups[group]
	if !ok {
		return nil
	}
	delete(g.pending, offset)
	return nil
}

func (s *MemoryStore) ClaimStale(_ context.Context, stream, group, consumer string, minIdle time.Duration, count int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stream(stream)
	g, ok := st.groups[group]
	if !ok {
		return nil, nil
	}

	var stale []Offset
	for off, p := range g.pending {
		if nowFunc().Sub(p.claimed) >= minIdle {
			stale = append(stale, off)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })

	var out []Entry
	for _, off := range stale {
		if len(out) >= count {
			break
		}
		p := g.pending[off]
		p.owner = consumer
		p.claimed = nowFunc()
		out = append(out, p.entry)
	}
	return out, nil
}

// nowFunc is a seam for deterministic tests; production code leaves it as
// time.Now.
var nowFunc = time.Now

package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

// MemoryStore keeps records in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	order   map[string][]string
	records map[string]memRecord
}

type memRecord struct {
	pageID string
	rec    widget.Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		order:   make(map[string][]string),
		records: make(map[string]memRecord),
	}
}

// ListWidgets returns copies of a page's records.
func (s *MemoryStore) ListWidgets(ctx context.Context, pageID string) ([]widget.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[pageID]
	out := make([]widget.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRecord(s.records[id].rec))
	}
	return out, nil
}

// CreateWidget inserts a record.
func (s *MemoryStore) CreateWidget(ctx context.Context, pageID string, r widget.Record) error {
	if err := checkRecord(pageID, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.ID]; ok {
		return duplicate(r.ID)
	}
	s.records[r.ID] = memRecord{pageID: pageID, rec: cloneRecord(r)}
	s.order[pageID] = append(s.order[pageID], r.ID)
	return nil
}

// SaveWidget inserts or replaces a record. A record moved to another page
// is appended there.
func (s *MemoryStore) SaveWidget(ctx context.Context, pageID string, r widget.Record) error {
	if err := checkRecord(pageID, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.records[r.ID]; ok && prev.pageID != pageID {
		s.removeLocked(r.ID)
	}
	if _, ok := s.records[r.ID]; !ok {
		s.order[pageID] = append(s.order[pageID], r.ID)
	}
	s.records[r.ID] = memRecord{pageID: pageID, rec: cloneRecord(r)}
	return nil
}

// UpdatePosition replaces one view's position.
func (s *MemoryStore) UpdatePosition(ctx context.Context, id string, view widget.ViewMode, p widget.Point) error {
	if _, err := positionField(view); err != nil {
		return err
	}
	raw, err := widget.EncodePoint(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.records[id]
	if !ok {
		return notFound(id)
	}
	if view == widget.Mobile {
		m.rec.MobilePosition = raw
	} else {
		m.rec.WebPosition = raw
	}
	s.records[id] = m
	return nil
}

// UpdateSize replaces the size tag.
func (s *MemoryStore) UpdateSize(ctx context.Context, id string, size widget.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.records[id]
	if !ok {
		return notFound(id)
	}
	m.rec.Size = string(size)
	s.records[id] = m
	return nil
}

// DeleteWidget removes a record.
func (s *MemoryStore) DeleteWidget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	s.removeLocked(id)
	return nil
}

func (s *MemoryStore) removeLocked(id string) {
	m := s.records[id]
	delete(s.records, id)
	ids := s.order[m.pageID]
	for i, other := range ids {
		if other == id {
			s.order[m.pageID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.order[m.pageID]) == 0 {
		delete(s.order, m.pageID)
	}
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

func cloneRecord(r widget.Record) widget.Record {
	r.Position = bytes.Clone(r.Position)
	r.WebPosition = bytes.Clone(r.WebPosition)
	r.MobilePosition = bytes.Clone(r.MobilePosition)
	return r
}

var _ Store = (*MemoryStore)(nil)

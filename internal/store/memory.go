package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/JonMunkholm/dataquality/internal/core"
)

var errMissingID = errors.New("save table: missing dataset or table id")

// Memory keeps table state in process. States are deep-copied on save and on
// load, so callers never share memory with the stored state.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*core.TableState
	issues map[string]string // issue id -> table id
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string]*core.TableState),
		issues: make(map[string]string),
	}
}

// SaveTable implements core.Repository.
func (m *Memory) SaveTable(_ context.Context, st *core.TableState) error {
	id := st.TableID()
	if id == "" {
		return errMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.tables[id]; ok {
		for _, is := range old.Issues {
			delete(m.issues, is.ID)
		}
	}
	m.tables[id] = st.Copy()
	for _, is := range st.Issues {
		m.issues[is.ID] = id
	}
	return nil
}

// LoadTable implements core.Repository.
func (m *Memory) LoadTable(_ context.Context, tableID string) (*core.TableState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.tables[tableID]
	if !ok {
		return nil, notFound("table", tableID)
	}
	return st.Copy(), nil
}

// DeleteTable implements core.Repository.
func (m *Memory) DeleteTable(_ context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.tables[tableID]
	if !ok {
		return notFound("table", tableID)
	}
	for _, is := range st.Issues {
		delete(m.issues, is.ID)
	}
	delete(m.tables, tableID)
	return nil
}

// ListTables implements core.Repository. Most recently updated first.
func (m *Memory) ListTables(_ context.Context) ([]core.DatasetInfo, error) {
	m.mu.RLock()
	out := make([]core.DatasetInfo, 0, len(m.tables))
	for _, st := range m.tables {
		out = append(out, st.Dataset.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].TableID < out[j].TableID
	})
	return out, nil
}

// FindIssueTable implements core.Repository.
func (m *Memory) FindIssueTable(_ context.Context, issueID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.issues[issueID]
	if !ok {
		return "", notFound("issue", issueID)
	}
	return id, nil
}

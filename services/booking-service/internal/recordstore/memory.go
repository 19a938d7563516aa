package recordstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used for stub mode and tests.
type Memory struct {
	mu      sync.RWMutex
	prefix  string
	now     func() time.Time
	tables  map[string][]Record
	creates int
}

func NewMemory(idPrefix string) *Memory {
	if idPrefix == "" {
		idPrefix = "rec"
	}
	return &Memory{
		prefix: idPrefix,
		now:    func() time.Time { return time.Now().UTC() },
		tables: make(map[string][]Record),
	}
}

// Insert seeds a record with a caller-chosen id.
func (m *Memory) Insert(table, id string, fields Fields) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := Record{ID: id, Fields: cloneFields(fields), CreatedAt: m.now()}
	m.tables[table] = append(m.tables[table], rec)
	return rec
}

func (m *Memory) FetchAll(ctx context.Context, table string, filter Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.tables[table] {
		if filter.Match(rec.Fields) {
			out = append(out, Record{ID: rec.ID, Fields: cloneFields(rec.Fields), CreatedAt: rec.CreatedAt})
		}
	}
	return out, nil
}

func (m *Memory) CreateRecord(ctx context.Context, table string, fields Fields) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := Record{
		ID:        m.prefix + "-" + uuid.NewString(),
		Fields:    cloneFields(fields),
		CreatedAt: m.now(),
	}
	m.tables[table] = append(m.tables[table], rec)
	m.creates++
	return Record{ID: rec.ID, Fields: cloneFields(rec.Fields), CreatedAt: rec.CreatedAt}, nil
}

// Creates counts CreateRecord calls, not seeded rows.
func (m *Memory) Creates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creates
}

func cloneFields(in Fields) Fields {
	out := make(Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

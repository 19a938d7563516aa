package recordstore

import (
	"encoding/json"
	"fmt"
	"io"
)

// LoadFixture seeds m from JSON of the form {"<table>": [{"id": "...", "fields": {...}}]}.
// Rows without an id get one derived from the table and position.
func LoadFixture(r io.Reader, m *Memory) error {
	var raw map[string][]struct {
		ID     string `json:"id"`
		Fields Fields `json:"fields"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	for table, rows := range raw {
		for i, row := range rows {
			id := row.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", table, i)
			}
			m.Insert(table, id, row.Fields)
		}
	}
	return nil
}

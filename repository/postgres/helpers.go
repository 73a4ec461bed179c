package postgres

import (
	"encoding/json"
	"time"

	"github.com/fastygo/taskflow/domain"
)

// marshalCollaboration stores empty collaboration data as SQL NULL.
func marshalCollaboration(c *domain.Collaboration) ([]byte, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(c)
}

func unmarshalCollaboration(data []byte) (*domain.Collaboration, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var c domain.Collaboration
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, nil
	}
	return &c, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return nullTime(*t)
}

package bookbase

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List is one page of a collection endpoint.
type List[T any] struct {
	Items []T
	Total int
}

// decodeList accepts the two shapes the list endpoints answer with: a bare
// array, or an object holding the array under field plus a "total" count.
// Total falls back to the item count when it is missing or zero.
func decodeList[T any](body []byte, field string) (List[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return List[T]{Items: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return List[T]{}, fmt.Errorf("decode %s array: %w", field, err)
		}
		return List[T]{Items: nonNil(items), Total: len(items)}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return List[T]{}, fmt.Errorf("decode %s object: %w", field, err)
	}

	var items []T
	if raw, ok := envelope[field]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return List[T]{}, fmt.Errorf("decode %s: %w", field, err)
		}
	}

	var total int
	if raw, ok := envelope["total"]; ok {
		_ = json.Unmarshal(raw, &total)
	}
	if total <= 0 {
		total = len(items)
	}

	return List[T]{Items: nonNil(items), Total: total}, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

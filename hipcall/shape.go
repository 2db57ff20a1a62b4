package hipcall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// shape lists the keys a JSON object must carry with a non-null value.
// Nested shapes apply to an object value, or to every element of an array value.
type shape struct {
	required []string
	nested   map[string]shape
}

var (
	metaShape = shape{required: []string{"count", "limit", "offset"}}
	callShape = shape{required: []string{"uuid", "started_at", "ended_at", "direction"}}
	taskShape = shape{required: []string{"id", "name", "done"}}
)

func envelope(data shape, withMeta bool) shape {
	s := shape{
		required: []string{"data"},
		nested:   map[string]shape{"data": data},
	}
	if withMeta {
		s.required = append(s.required, "meta")
		s.nested["meta"] = metaShape
	}
	return s
}

// check reports the first required key missing from raw
func (s shape) check(raw json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("expected an object, got null")
	}

	for _, key := range s.required {
		if v, ok := obj[key]; !ok || isNull(v) {
			return fmt.Errorf("missing required field %q", key)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(s.nested)) {
		v, ok := obj[key]
		if !ok || isNull(v) {
			continue
		}
		if err := s.nested[key].checkValue(key, v); err != nil {
			return err
		}
	}
	return nil
}

func (s shape) checkValue(key string, v json.RawMessage) error {
	if bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return err
		}
		for i, item := range items {
			if err := s.check(item); err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
		}
		return nil
	}
	if err := s.check(v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// shaper is implemented by every response envelope
type shaper interface {
	shape() shape
}

func (*CallListResponse) shape() shape      { return envelope(callShape, true) }
func (*CallDetailResponse) shape() shape    { return envelope(callShape, false) }
func (*CallAndBridgeResponse) shape() shape { return envelope(shape{required: []string{"id"}}, false) }
func (*TaskListResponse) shape() shape      { return envelope(taskShape, true) }
func (*TaskResponse) shape() shape          { return envelope(taskShape, false) }
func (*TaskDetailResponse) shape() shape    { return envelope(taskShape, false) }

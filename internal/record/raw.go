package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RawRecord is one item of a Bitable page: the record id plus its field bag.
// Field values keep whatever JSON type the source sent.
type RawRecord struct {
	ID     string         `json:"record_id"`
	Fields map[string]any `json:"fields"`
}

// UnmarshalJSON decodes a record and NFC-normalizes its field names so that
// lookups by name do not depend on how the source composed them.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID     string         `json:"record_id"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.ID = wire.ID
	r.Fields = make(map[string]any, len(wire.Fields))
	for k, v := range wire.Fields {
		r.Fields[norm.NFC.String(k)] = v
	}
	return nil
}

// Get returns the value of a field and whether it is present and non-null.
func (r RawRecord) Get(name string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	if !ok {
		v, ok = r.Fields[norm.NFC.String(name)]
	}
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Number returns a field as float64 when the source value is numeric.
// Text is never parsed here; NaN and infinities count as absent.
func (r RawRecord) Number(name string) (float64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text returns a field rendered as text. Strings are returned verbatim,
// rich-text segment lists are joined, other scalars are formatted.
func (r RawRecord) Text(name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	return textOf(v)
}

func textOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		// Text cells arrive as [{"type":"text","text":"..."}], multi-select
		// cells as ["a","b"] and person cells as [{"name":"..."}]
		var parts []string
		richText := true
		for _, elem := range t {
			s, ok := elementText(elem)
			if !ok {
				continue
			}
			if m, isMap := elem.(map[string]any); !isMap || m["type"] == nil {
				richText = false
			}
			parts = append(parts, s)
		}
		if len(parts) == 0 {
			return "", false
		}
		if richText {
			return strings.Join(parts, ""), true
		}
		return strings.Join(parts, ", "), true
	case map[string]any:
		return elementText(t)
	default:
		return "", false
	}
}

// elementText renders one element of a list cell: plain strings as is,
// rich-text segments by their "text", other objects by their "name" or
// else their "text".
func elementText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		if _, segment := t["type"]; segment {
			s, ok := t["text"].(string)
			return s, ok
		}
		if s, ok := t["name"].(string); ok {
			return s, true
		}
		if s, ok := t["text"].(string); ok {
			return s, true
		}
	}
	return "", false
}

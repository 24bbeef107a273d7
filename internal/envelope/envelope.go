// Package envelope flattens the list-bills payload into a plain sequence of
// records. The billing service may answer with a bare array, a paginated
// wrapper or a hypermedia document, and the shape is not negotiated.
package envelope

import (
	"bytes"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/models"
)

// shape recognizes one envelope layout. extract reports false when the
// payload does not have this layout.
type shape struct {
	name    string
	extract func(json.RawMessage) ([]json.RawMessage, bool)
}

// shapes are tried top to bottom; the first match wins.
var shapes = []shape{
	{name: "array", extract: asArray},
	{name: "content", extract: field("content")},
	{name: "_embedded.bills", extract: field("_embedded", "bills")},
}

// Normalize returns the records held by raw in their original order. It
// never fails: an unrecognized or malformed payload yields an empty slice.
func Normalize(raw json.RawMessage) []json.RawMessage {
	items, _ := normalize(raw)
	return items
}

// Shape reports which layout Normalize would use, or "" when none matches.
func Shape(raw json.RawMessage) string {
	_, name := normalize(raw)
	return name
}

func normalize(raw json.RawMessage) ([]json.RawMessage, string) {
	for _, s := range shapes {
		if items, ok := s.extract(raw); ok {
			return items, s.name
		}
	}
	return []json.RawMessage{}, ""
}

// DecodeBills normalizes raw and decodes each record. Records that cannot be
// decoded are skipped and logged.
func DecodeBills(raw json.RawMessage, logger *zap.Logger) []models.Bill {
	if logger == nil {
		logger = zap.NewNop()
	}

	items, name := normalize(raw)
	if name == "" && len(bytes.TrimSpace(raw)) > 0 {
		logger.Warn("unrecognized bill list envelope", zap.Int("bytes", len(raw)))
	}

	bills := make([]models.Bill, 0, len(items))
	for i, item := range items {
		var bill models.Bill
		if err := json.Unmarshal(item, &bill); err != nil {
			logger.Warn("skipping undecodable bill", zap.Int("index", i), zap.Error(err))
			continue
		}
		bills = append(bills, bill)
	}
	return bills
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

// field descends through nested object keys and expects an array at the end.
func field(path ...string) func(json.RawMessage) ([]json.RawMessage, bool) {
	return func(raw json.RawMessage) ([]json.RawMessage, bool) {
		current := raw
		for _, key := range path {
			trimmed := bytes.TrimSpace(current)
			if len(trimmed) == 0 || trimmed[0] != '{' {
				return nil, false
			}
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(trimmed, &obj); err != nil {
				return nil, false
			}
			next, ok := obj[key]
			if !ok {
				return nil, false
			}
			current = next
		}
		return asArray(current)
	}
}

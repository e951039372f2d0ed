package erp

import "fmt"

// record is one row of a search_read or read reply.
type record map[string]any

func records(reply any) ([]record, error) {
	rows, ok := reply.([]any)
	if !ok {
		if reply == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: want array, got %T", ErrUnexpectedReply, reply)
	}

	out := make([]record, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: want struct row, got %T", ErrUnexpectedReply, row)
		}
		out = append(out, record(m))
	}
	return out, nil
}

func (r record) intField(key string) int64 {
	return asInt(r[key])
}

func (r record) floatField(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// stringField returns text fields; Odoo sends false for empty ones.
func (r record) stringField(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// many2one decodes an [id, display_name] pair or false.
func (r record) many2one(key string) (int64, string) {
	pair, ok := r[key].([]any)
	if !ok || len(pair) == 0 {
		return 0, ""
	}
	id := asInt(pair[0])
	if len(pair) < 2 {
		return id, ""
	}
	name, _ := pair[1].(string)
	return id, name
}

// count returns the length of a one2many or many2many id list.
func (r record) count(key string) int {
	ids, _ := r[key].([]any)
	return len(ids)
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

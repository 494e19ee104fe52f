package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamps are stored as fixed-width RFC 3339 UTC text so rows stay
// readable in the sqlite3 shell and text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalJSONMap serializes a value map; nil maps become "{}".
func marshalJSONMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal JSON map: %w", err)
	}
	return string(b), nil
}

func unmarshalJSONMap(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshal JSON map: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// marshalOptions serializes a dropdown option list; nil becomes "[]".
func marshalOptions(opts []string) (string, error) {
	if opts == nil {
		opts = []string{}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(b), nil
}

func unmarshalOptions(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(s), &opts); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	if opts == nil {
		opts = []string{}
	}
	return opts, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package models

import (
	"time"

	"eventa/store"
)

// Decode helpers for rows coming back from the data service. Values may
// arrive as native Go types, as the provider's own datetime type, or as
// strings after a JSON round trip; these tolerate all three.

func rowString(r store.Row, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func rowBool(r store.Row, key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

func rowFloat(r store.Row, key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func rowInt(r store.Row, key string) int {
	return int(rowFloat(r, key))
}

func rowTime(r store.Row, key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case interface{ Time() time.Time }:
		return v.Time()
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05.000Z", "2006-01-02 15:04:05Z"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

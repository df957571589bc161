// Package instant converts the heterogeneous timestamp representations
// found at the storage boundary into one canonical time.Time. No other
// package handles a raw, untyped timestamp.
package instant

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Seconds mirrors the serialized {seconds, nanos} timestamp struct some
// clients persist instead of a native datetime.
type Seconds struct {
	Seconds int64 `json:"seconds" bson:"seconds"`
	Nanos   int64 `json:"nanos" bson:"nanos"`
}

// Normalize converts any supported timestamp representation to a UTC
// time.Time. Accepted inputs: time.Time and *time.Time, bson datetimes,
// {seconds, nanos} structs and maps, RFC3339 strings and epoch-millisecond
// numbers. Nil, zero or unparseable input falls back to the current
// instant; Normalize never fails.
func Normalize(raw any) time.Time {
	switch v := raw.(type) {
	case nil:
		return time.Now().UTC()
	case time.Time:
		if v.IsZero() {
			return time.Now().UTC()
		}
		return v.UTC()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Now().UTC()
		}
		return v.UTC()
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	case Seconds:
		return time.Unix(v.Seconds, v.Nanos).UTC()
	case *Seconds:
		if v == nil {
			return time.Now().UTC()
		}
		return time.Unix(v.Seconds, v.Nanos).UTC()
	case string:
		return parseString(v)
	case int64:
		return fromMillis(v)
	case int:
		return fromMillis(int64(v))
	case float64:
		return fromMillis(int64(v))
	case map[string]any:
		return fromMap(v)
	case primitive.M:
		return fromMap(v)
	default:
		return time.Now().UTC()
	}
}

func parseString(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(ms).UTC()
}

func fromMap(m map[string]any) time.Time {
	secs, ok := number(m["seconds"])
	if !ok {
		secs, ok = number(m["_seconds"])
	}
	if !ok {
		return time.Now().UTC()
	}
	nanos, _ := number(m["nanos"])
	if nanos == 0 {
		nanos, _ = number(m["_nanoseconds"])
	}
	return time.Unix(secs, nanos).UTC()
}

func number(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

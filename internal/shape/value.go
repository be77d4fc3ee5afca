package shape

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcncl/pytyper/internal/models"
)

// Options controls how sample values map onto the lattice.
type Options struct {
	// DetectSpecialStrings refines ISO 8601 timestamps to Datetime and
	// canonical UUIDs to UUID.
	DetectSpecialStrings bool
}

// FromValue converts a parsed value into a node by structural recursion.
// Object fields start out required; a null field value becomes a nullable
// Null slot.
func FromValue(v models.Value, opts Options) *Node {
	switch v.Kind {
	case models.KindNull:
		return Scalar(Null)
	case models.KindBool:
		return Scalar(Bool)
	case models.KindInt:
		return Scalar(Int)
	case models.KindFloat:
		return Scalar(Float)
	case models.KindString:
		return Scalar(stringKind(v.Str, opts))
	case models.KindArray:
		elems := make([]*Node, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = FromValue(e, opts)
		}
		return ArrayOf(Fold(elems))
	case models.KindObject:
		fields := make([]Field, len(v.Members))
		for i, m := range v.Members {
			t := FromValue(m.Value, opts)
			fields[i] = Field{Name: m.Key, Slot: Slot{Type: t, Nullable: t.Kind == Null}}
		}
		return ObjectOf(fields...)
	}
	return Scalar(Any)
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// stringKind refines s only when the typed value prints back as s: Python's
// isoformat with "Z" for UTC, and str() of a UUID.
func stringKind(s string, opts Options) Kind {
	if !opts.DetectSpecialStrings {
		return Str
	}
	if len(s) == 36 {
		if u, err := uuid.Parse(s); err == nil && u.String() == s {
			return UUID
		}
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if isoformat(t, layout == time.RFC3339Nano) == s {
				return Datetime
			}
			return Str
		}
	}
	return Str
}

// isoformat renders t the way datetime.isoformat does, writing a zero UTC
// offset as "Z".
func isoformat(t time.Time, zoned bool) string {
	out := t.Format("2006-01-02T15:04:05")
	if micro := t.Nanosecond() / 1000; micro != 0 {
		out += fmt.Sprintf(".%06d", micro)
	}
	if !zoned {
		return out
	}
	if _, offset := t.Zone(); offset == 0 {
		return out + "Z"
	}
	return out + t.Format("-07:00")
}

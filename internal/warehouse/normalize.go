package warehouse

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// float64er matches decimal types that expose a lossy float conversion.
type float64er interface {
	Float64() (float64, bool)
}

// normalize maps a driver value onto the frame cell types: nil, bool,
// int64, float64, string or time.Time. Non-finite floats become nil.
func normalize(v any) any {
	// Nullable scan targets arrive as pointers; a nil one is NULL.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}

	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, time.Time:
		return x
	case int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case uint:
		return normalize(uint64(x))
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case []byte:
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case uuid.UUID:
		return x.String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return finite(f.Float64)
	case float64er:
		f, _ := x.Float64()
		return finite(f)
	case fmt.Stringer:
		return x.String()
	}

	return fmt.Sprint(v)
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

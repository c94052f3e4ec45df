package tabular

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// formatValue returns the text form of v and whether v is textual.
// Textual values are strings, byte slices, errors and fmt.Stringer
// implementations other than time.Time; only they are subject to quote duplication.
func formatValue(v any, timeLayout string) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false, nil
		}
	}

	switch x := v.(type) {
	case string:
		return x, true, nil
	case []byte:
		return string(x), true, nil
	case time.Time:
		return x.Format(timeLayout), false, nil
	case *time.Time:
		return x.Format(timeLayout), false, nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", false, fmt.Errorf("%w: %T: %v", ErrUnsupportedValue, v, err)
		}
		return formatValue(dv, timeLayout)
	case fmt.Stringer:
		return x.String(), true, nil
	case error:
		return x.Error(), true, nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return formatValue(rv.Elem().Interface(), timeLayout)
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		v = rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v = rv.Uint()
	case reflect.Float32:
		v = float32(rv.Float())
	case reflect.Float64:
		v = rv.Float()
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return s, false, nil
}

// isNull reports whether v is a relational null: nil, a nil pointer, or a
// driver.Valuer whose value is nil.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return true
	}
	if dv, ok := v.(driver.Valuer); ok {
		val, err := dv.Value()
		return err == nil && val == nil
	}
	return false
}

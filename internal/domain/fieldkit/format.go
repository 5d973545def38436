package fieldkit

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Format renders a typed value for display and export. Nil renders as "".
func Format(kind Kind, value any) string {
	if IsNil(value) {
		return ""
	}
	switch kind {
	case KindMoney:
		d, ok := ToDecimal(value)
		if !ok {
			return fmt.Sprint(value)
		}
		return groupThousands(d.StringFixed(moneyScale))
	case KindPercent:
		d, ok := ToDecimal(value)
		if !ok {
			return fmt.Sprint(value)
		}
		return d.String() + "%"
	case KindNumber:
		d, ok := ToDecimal(value)
		if !ok {
			return fmt.Sprint(value)
		}
		return d.String()
	case KindDate:
		t, ok := ToTime(value)
		if !ok {
			return fmt.Sprint(value)
		}
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	case KindBoolean:
		b, ok := ToBool(value)
		if !ok {
			return fmt.Sprint(value)
		}
		if b {
			return "Yes"
		}
		return "No"
	}
	return plain(value)
}

func plain(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// IsNil reports whether value is nil or a nil pointer, slice or map
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// groupThousands inserts commas into the integer part of a fixed-point string
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}

// ToDecimal converts common numeric representations into a decimal
func ToDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := parseDecimal(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		return d, err == nil
	}
	return decimal.Zero, false
}

// ToTime converts a time value or a date string into a time
func ToTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return ParseDate(strings.TrimSpace(v))
	}
	return time.Time{}, false
}

// ToBool converts a bool or a boolean-like string
func ToBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case *bool:
		if v == nil {
			return false, false
		}
		return *v, true
	case string:
		return ParseBool(v)
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	}
	if s, ok := value.(fmt.Stringer); ok {
		if b, err := strconv.ParseBool(s.String()); err == nil {
			return b, true
		}
	}
	return false, false
}

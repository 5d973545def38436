package fieldkit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayouts are the accepted input layouts for date fields, tried in order
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
}

const (
	minPhoneDigits = 6
	maxPhoneDigits = 15
	moneyScale     = 2
)

var validate = validator.New()

// NormalizeOnChange cleans a value while it is being typed. It never fails;
// characters that can never be part of a valid value are dropped.
func NormalizeOnChange(kind Kind, raw string) string {
	switch kind {
	case KindPhone:
		return keepPhone(raw)
	case KindNumber:
		return keepNumeric(raw, true, true, -1)
	case KindMoney:
		return keepNumeric(raw, true, true, moneyScale)
	case KindPercent:
		return keepNumeric(raw, false, true, -1)
	case KindInteger:
		return keepNumeric(raw, true, false, -1)
	case KindEmail:
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, raw)
	default:
		return raw
	}
}

func keepPhone(raw string) string {
	raw = strings.TrimLeftFunc(raw, unicode.IsSpace)
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ' ', r == '-', r == '(', r == ')':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keepNumeric keeps digits plus an optional leading sign and a single dot.
// maxFrac < 0 means the fraction is not limited.
func keepNumeric(raw string, allowSign, allowDot bool, maxFrac int) string {
	var b strings.Builder
	seenDot := false
	frac := 0
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			if seenDot && maxFrac >= 0 {
				if frac >= maxFrac {
					continue
				}
				frac++
			}
			b.WriteRune(r)
		case r == '.' && allowDot && !seenDot:
			seenDot = true
			b.WriteRune(r)
		case r == '-' && allowSign && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeOnCommit parses the final value of a field. An empty optional
// value yields nil. Errors are *shared.DomainError with code INVALID_INPUT.
func NormalizeOnCommit(spec Spec, raw string) (any, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		if spec.Required {
			return nil, invalid(spec, "is required")
		}
		return nil, nil
	}

	switch spec.Kind {
	case KindEmail:
		email := strings.ToLower(value)
		if err := validate.Var(email, "email"); err != nil {
			return nil, invalid(spec, "must be a valid email address")
		}
		return email, nil

	case KindPhone:
		return commitPhone(spec, value)

	case KindNumber:
		d, err := parseDecimal(value)
		if err != nil {
			return nil, invalid(spec, "must be a number")
		}
		return d, nil

	case KindInteger:
		n, err := strconv.ParseInt(strings.ReplaceAll(value, ",", ""), 10, 64)
		if err != nil {
			return nil, invalid(spec, "must be a whole number")
		}
		return n, nil

	case KindMoney:
		d, err := parseDecimal(value)
		if err != nil {
			return nil, invalid(spec, "must be an amount")
		}
		return d.Round(moneyScale), nil

	case KindPercent:
		d, err := parseDecimal(strings.TrimSuffix(value, "%"))
		if err != nil {
			return nil, invalid(spec, "must be a percentage")
		}
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return nil, invalid(spec, "must be between 0 and 100")
		}
		return d, nil

	case KindDate:
		t, ok := ParseDate(value)
		if !ok {
			return nil, invalid(spec, "must be a date (YYYY-MM-DD)")
		}
		return t, nil

	case KindBoolean:
		b, ok := ParseBool(value)
		if !ok {
			return nil, invalid(spec, "must be yes or no")
		}
		return b, nil

	case KindSelect:
		if len(spec.Options) == 0 {
			return value, nil
		}
		for _, opt := range spec.Options {
			if strings.EqualFold(opt, value) {
				return opt, nil
			}
		}
		return nil, invalid(spec, fmt.Sprintf("must be one of: %s", strings.Join(spec.Options, ", ")))

	case KindText, KindTextarea:
		if spec.MaxLength > 0 && utf8.RuneCountInString(value) > spec.MaxLength {
			return nil, invalid(spec, fmt.Sprintf("must be at most %d characters", spec.MaxLength))
		}
		return value, nil

	default:
		return nil, invalid(spec, fmt.Sprintf("has unsupported kind %q", spec.Kind))
	}
}

func commitPhone(spec Spec, value string) (any, error) {
	var b strings.Builder
	digits := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ', r == '-', r == '(', r == ')', r == '.':
		default:
			return nil, invalid(spec, "must contain only digits")
		}
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return nil, invalid(spec, fmt.Sprintf("must have %d to %d digits", minPhoneDigits, maxPhoneDigits))
	}
	return b.String(), nil
}

func parseDecimal(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
}

// ParseDate parses value using DateLayouts. Results are in UTC.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseBool accepts true/false, yes/no, 1/0 and on/off in any case
func ParseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1", "on":
		return true, true
	case "false", "no", "0", "off":
		return false, true
	}
	return false, false
}

func invalid(spec Spec, reason string) error {
	return shared.NewDomainError("INVALID_INPUT", spec.displayName()+" "+reason)
}

// Package fieldkit turns raw user input into typed field values and renders
// typed values back into display strings.
package fieldkit

// Kind identifies how a field value is edited, parsed and displayed
type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindNumber   Kind = "number"
	KindInteger  Kind = "integer"
	KindMoney    Kind = "money"
	KindPercent  Kind = "percent"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
	KindBoolean  Kind = "boolean"
)

var allKinds = []Kind{
	KindText, KindTextarea, KindEmail, KindPhone, KindNumber, KindInteger,
	KindMoney, KindPercent, KindDate, KindSelect, KindBoolean,
}

// AllKinds returns every supported kind
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Spec describes one editable field
type Spec struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Kind      Kind     `json:"kind"`
	Required  bool     `json:"required"`
	Options   []string `json:"options,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
}

func (s Spec) displayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Key
}

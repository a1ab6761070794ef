package profile

import "encoding/json"

// ValueKind discriminates the Value sum type.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
)

// Value is a resolved answer: either a string or a boolean. Boolean answers
// come from checkbox-shaped attributes; the external filler interprets
// truthiness against checkbox/radio controls.
type Value struct {
	kind ValueKind
	str  string
	b    bool
}

// String wraps a string answer.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Bool wraps a boolean answer.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the discriminator.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string form: booleans render as "true"/"false".
func (v Value) Str() string {
	if v.kind == KindBool {
		if v.b {
			return "true"
		}
		return "false"
	}
	return v.str
}

// Bool returns the boolean form; string values are never truthy.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.b
}

// IsEmpty reports whether the value is an empty string. Boolean values are
// never empty, false included.
func (v Value) IsEmpty() bool {
	return v.kind == KindString && v.str == ""
}

// MarshalJSON preserves the underlying type on the wire.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindBool {
		return json.Marshal(v.b)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts either a JSON string or a JSON boolean.
func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = String(s)
	return nil
}

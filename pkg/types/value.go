package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindVersion
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindVersion:
		return "version"
	default:
		return "unknown"
	}
}

// Value is a field value. The zero Value is Null.
type Value struct {
	kind    Kind
	text    string
	version []int
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Version returns a dotted version value: major.minor.patch with an
// optional fourth build component. Extra components beyond the fourth are
// dropped.
func Version(major, minor, patch int, build ...int) Value {
	parts := []int{major, minor, patch}
	if len(build) > 0 {
		parts = append(parts, build[0])
	}
	return Value{kind: KindVersion, version: parts}
}

// ParseVersion parses "major.minor[.patch[.build]]". Missing patch is
// treated as 0. A leading "v" is accepted. The result is normalized, so its
// String may differ from s ("v01.2" renders as "1.2.0").
func ParseVersion(s string) (Value, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	fields := strings.Split(raw, ".")
	if len(fields) < 2 || len(fields) > 4 {
		return Null(), fmt.Errorf("types: parse version %q: want 2 to 4 components", s)
	}
	parts := make([]int, 0, 4)
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Null(), fmt.Errorf("types: parse version %q: bad component %q", s, f)
		}
		parts = append(parts, n)
	}
	if len(parts) == 2 {
		parts = append(parts, 0)
	}
	return Value{kind: KindVersion, version: parts}, nil
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absent value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String returns the textual form used on the wire. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindVersion:
		var b strings.Builder
		for i, p := range v.version {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(strconv.Itoa(p))
		}
		return b.String()
	default:
		return ""
	}
}

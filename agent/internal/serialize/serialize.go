package serialize

import (
	"fmt"
	"strings"

	"github.com/littleapps/usagestats/pkg/types"
)

// Format selects a wire format.
type Format string

const (
	JSON Format = "json"
	XML  Format = "xml"
)

// ParseFormat maps a config or flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case JSON:
		return JSON, nil
	case XML:
		return XML, nil
	default:
		return "", fmt.Errorf("serialize: unknown format %q: want json|xml", s)
	}
}

// Serialize renders b in format f. f must be JSON or XML; obtain it from
// ParseFormat when it comes from input. Any other value panics.
func Serialize(b types.Batch, f Format) string {
	switch f {
	case JSON:
		return MarshalJSON(b)
	case XML:
		return MarshalXML(b)
	}
	panic(fmt.Sprintf("serialize: unknown format %q", string(f)))
}

// MarshalXML renders b as an <Events> fragment.
func MarshalXML(b types.Batch) string {
	var sb strings.Builder
	sb.WriteString("<Events>")
	for _, e := range b {
		sb.WriteString("<Event>")
		for _, f := range e.Fields() {
			sb.WriteString("<" + f.Name + ">")
			if !f.Value.IsNull() {
				writeCDATA(&sb, f.Value.String())
			}
			sb.WriteString("</" + f.Name + ">")
		}
		sb.WriteString("</Event>")
	}
	sb.WriteString("</Events>")
	return sb.String()
}

// writeCDATA wraps s in a CDATA section. An embedded "]]>" closes the
// section early, so it is split across two sections.
func writeCDATA(sb *strings.Builder, s string) {
	sb.WriteString("<![CDATA[")
	sb.WriteString(strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>"))
	sb.WriteString("]]>")
}

// MarshalJSON renders b as a JSON array of objects.
func MarshalJSON(b types.Batch) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('{')
		for j, f := range e.Fields() {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(`"` + f.Name + `":`)
			if f.Value.IsNull() {
				sb.WriteString("null")
				continue
			}
			sb.WriteString(`"` + f.Value.String() + `"`)
		}
		sb.WriteByte('}')
	}
	sb.WriteByte(']')
	return sb.String()
}

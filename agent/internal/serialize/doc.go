// Package serialize renders a types.Batch into one of the two wire formats
// the collection endpoint accepts.
//
// XML is a fragment without a prolog:
//
//	<Events><Event><OS><![CDATA[Linux]]></OS><LastError></LastError></Event></Events>
//
// JSON is an array of flat objects where every non-null value is a string:
//
//	[{"OS":"Linux","Version":"1.2.3","LastError":null}]
//
// Neither format escapes field names or values. Callers must supply names
// that are valid XML element names and values free of unescaped quotes.
// Serialization never fails and never mutates its input.
package serialize

// Package types defines the event model shared by the agent and the
// development collector.
//
// A Value is one of three kinds: Null, Text or Version. An Event is an
// ordered set of named values; insertion order is the order fields are
// serialized in. A Batch is an ordered list of events reported together in
// one transmission.
//
// Events are built by the collecting side (probe, CLI flags) and treated as
// read-only once handed to the serializer.
package types

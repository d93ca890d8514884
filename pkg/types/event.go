package types

// Field is one named value of an Event.
type Field struct {
	Name  string
	Value Value
}

// Event is an ordered mapping from field name to Value.
// The zero Event is empty and ready to use.
type Event struct {
	fields []Field
	index  map[string]int
}

// NewEvent returns an Event holding fields in the given order.
// Later duplicates overwrite earlier values in place.
func NewEvent(fields ...Field) *Event {
	e := &Event{}
	for _, f := range fields {
		e.Set(f.Name, f.Value)
	}
	return e
}

// Set appends name=v, or replaces the value if name is already present.
// A replaced field keeps its original position. Empty names are ignored.
func (e *Event) Set(name string, v Value) *Event {
	if name == "" {
		return e
	}
	if e.index == nil {
		e.index = make(map[string]int)
	}
	if i, ok := e.index[name]; ok {
		e.fields[i].Value = v
		return e
	}
	e.index[name] = len(e.fields)
	e.fields = append(e.fields, Field{Name: name, Value: v})
	return e
}

// Get returns the value stored under name.
func (e *Event) Get(name string) (Value, bool) {
	if e == nil {
		return Null(), false
	}
	i, ok := e.index[name]
	if !ok {
		return Null(), false
	}
	return e.fields[i].Value, true
}

// Fields returns a copy of the event's fields in insertion order.
func (e *Event) Fields() []Field {
	if e == nil {
		return nil
	}
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Len returns the number of fields.
func (e *Event) Len() int {
	if e == nil {
		return 0
	}
	return len(e.fields)
}

// Batch is an ordered list of events sent in one transmission.
type Batch []*Event

// Len returns the number of events in the batch.
func (b Batch) Len() int { return len(b) }

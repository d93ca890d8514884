package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Kinds(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.True(t, Value{}.IsNull(), "zero Value must be Null")
	assert.Equal(t, KindText, Text("x").Kind())
	assert.Equal(t, KindVersion, Version(1, 2, 3).Kind())
	assert.Equal(t, "", Null().String())
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "1.2.3", Version(1, 2, 3).String())
	assert.Equal(t, "1.2.3.4", Version(1, 2, 3, 4).String())
	assert.Equal(t, "1.2.3.4", Version(1, 2, 3, 4, 5).String())
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"v1.22.3", "1.22.3"},
		{"10.4", "10.4.0"},
		{"6.1.7601.65536", "6.1.7601.65536"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			v, err := ParseVersion(tc.in)
			require.NoError(t, err)
			assert.Equal(t, KindVersion, v.Kind())
			assert.Equal(t, tc.want, v.String())
		})
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, in := range []string{"", "1", "1.2.3.4.5", "1.x.3", "1.-2.3", "go1.22"} {
		t.Run(in, func(t *testing.T) {
			v, err := ParseVersion(in)
			assert.Error(t, err)
			assert.True(t, v.IsNull())
		})
	}
}

func TestEvent_PreservesInsertionOrder(t *testing.T) {
	e := &Event{}
	e.Set("B", Text("b")).Set("A", Text("a")).Set("C", Null())

	fields := e.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "B", fields[0].Name)
	assert.Equal(t, "A", fields[1].Name)
	assert.Equal(t, "C", fields[2].Name)
}

func TestEvent_SetReplacesInPlace(t *testing.T) {
	e := NewEvent(
		Field{Name: "OS", Value: Text("Linux")},
		Field{Name: "Arch", Value: Text("amd64")},
	)
	e.Set("OS", Text("Darwin"))

	assert.Equal(t, 2, e.Len())
	fields := e.Fields()
	assert.Equal(t, "OS", fields[0].Name)
	assert.Equal(t, "Darwin", fields[0].Value.String())
}

func TestEvent_IgnoresEmptyName(t *testing.T) {
	e := NewEvent(Field{Name: "", Value: Text("x")})
	assert.Equal(t, 0, e.Len())
}

func TestEvent_FieldsIsCopy(t *testing.T) {
	e := NewEvent(Field{Name: "OS", Value: Text("Linux")})
	fields := e.Fields()
	fields[0].Value = Text("mutated")

	v, ok := e.Get("OS")
	require.True(t, ok)
	assert.Equal(t, "Linux", v.String())
}

func TestEvent_Get(t *testing.T) {
	e := NewEvent(Field{Name: "LastError", Value: Null()})

	v, ok := e.Get("LastError")
	assert.True(t, ok)
	assert.True(t, v.IsNull())

	_, ok = e.Get("missing")
	assert.False(t, ok)

	var nilEvent *Event
	_, ok = nilEvent.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, nilEvent.Len())
}

func TestBatch_Len(t *testing.T) {
	assert.Equal(t, 0, Batch(nil).Len())
	b := Batch{NewEvent(), NewEvent()}
	assert.Equal(t, 2, b.Len())
}

package vda5050json

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vda5050go/core/vda"
)

func TestAppendValue(t *testing.T) {
	cases := []struct {
		name string
		in   vda.Value
		want string
	}{
		{"string", vda.StringValue(`hi "there"`), `"hi \"there\""`},
		{"int", vda.IntValue(42), `42`},
		{"float", vda.FloatValue(1.5), `1.5`},
		{"bool", vda.BoolValue(true), `true`},
		{"opaque", vda.OpaqueValue(map[string]int{"a": 1}), `{"a":1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := AppendValue(nil, c.in)
			assert.Equal(t, c.want, string(got))
		})
	}
}

func TestAppendActionParameters(t *testing.T) {
	params := map[string]vda.Value{
		"speed":  vda.FloatValue(2.5),
		"target": vda.StringValue("bay1"),
	}
	keys := []string{"speed", "target", "missing"}

	got := AppendActionParameters(nil, params, keys)
	assert.Equal(t, `[{"key":"speed","value":2.5},{"key":"target","value":"bay1"}]`, string(got))
}

func TestAppendActionParameters_LeadingKeyMissing(t *testing.T) {
	// keys[0] ("missing") is absent from params; the separator must not be
	// emitted before the first key that actually has a value.
	params := map[string]vda.Value{
		"target": vda.StringValue("bay1"),
	}
	keys := []string{"missing", "target"}

	got := AppendActionParameters(nil, params, keys)
	assert.Equal(t, `[{"key":"target","value":"bay1"}]`, string(got))
}

func TestAppendResultString(t *testing.T) {
	assert.Equal(t, "null", string(AppendResultString(nil, nil)))

	s := "done"
	assert.Equal(t, `"done"`, string(AppendResultString(nil, &s)))
}

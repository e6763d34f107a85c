package vda

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockingType_CeilDominanceOrder(t *testing.T) {
	cases := []struct {
		a, b, want BlockingType
	}{
		{BlockingNone, BlockingNone, BlockingNone},
		{BlockingNone, BlockingSoft, BlockingSoft},
		{BlockingNone, BlockingHard, BlockingHard},
		{BlockingSoft, BlockingNone, BlockingSoft},
		{BlockingSoft, BlockingSoft, BlockingSoft},
		{BlockingSoft, BlockingHard, BlockingHard},
		{BlockingHard, BlockingNone, BlockingHard},
		{BlockingHard, BlockingSoft, BlockingHard},
		{BlockingHard, BlockingHard, BlockingHard},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.a.Ceil(c.b), "Ceil(%s, %s)", c.a, c.b)
	}
}

func TestBlockingType_String(t *testing.T) {
	assert.Equal(t, "NONE", BlockingNone.String())
	assert.Equal(t, "SOFT", BlockingSoft.String())
	assert.Equal(t, "HARD", BlockingHard.String())
	assert.Equal(t, "UNKNOWN", BlockingType(99).String())
}

func TestAction_ParamFetchesPresentKey(t *testing.T) {
	a := &Action{Parameters: map[string]Value{
		"speed": FloatValue(1.5),
	}}

	v, ok := a.Param("speed")
	assert.True(t, ok)
	assert.Equal(t, ParamFloat, v.Kind)
	assert.Equal(t, 1.5, v.Float)

	_, ok = a.Param("missing")
	assert.False(t, ok)
}

func TestValueConstructors(t *testing.T) {
	assert.Equal(t, Value{Kind: ParamString, Str: "x"}, StringValue("x"))
	assert.Equal(t, Value{Kind: ParamInt, Int: 3}, IntValue(3))
	assert.Equal(t, Value{Kind: ParamBool, Bool: true}, BoolValue(true))
	assert.Equal(t, ParamOpaque, OpaqueValue(struct{}{}).Kind)
}

func TestActionStatus_String(t *testing.T) {
	assert.Equal(t, "RUNNING", StatusRunning.String())
	assert.Equal(t, "UNKNOWN", ActionStatus(99).String())
}

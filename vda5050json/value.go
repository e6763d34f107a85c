// Package vda5050json renders core data-model values as VDA5050 wire JSON,
// reusing jsonenc's allocation-light number/string encoders rather than
// round-tripping through encoding/json for every action parameter.
package vda5050json

import (
	"encoding/json"
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"

	"github.com/vda5050go/core/vda"
)

// AppendValue appends v's JSON encoding to dst, mirroring the wire shape of
// a VDA5050 actionParameters value: a bare string, number, or boolean for
// the scalar kinds, and a best-effort encoding/json fallback for Opaque
// (arrays/objects), which this package has no closed-form representation
// for.
func AppendValue(dst []byte, v vda.Value) []byte {
	switch v.Kind {
	case vda.ParamString:
		return jsonenc.AppendString(dst, v.Str)
	case vda.ParamInt:
		return strconv.AppendInt(dst, v.Int, 10)
	case vda.ParamFloat:
		return jsonenc.AppendFloat64(dst, v.Float)
	case vda.ParamBool:
		return strconv.AppendBool(dst, v.Bool)
	case vda.ParamOpaque:
		return appendOpaque(dst, v.Opaque)
	default:
		return append(dst, "null"...)
	}
}

func appendOpaque(dst []byte, opaque any) []byte {
	b, err := json.Marshal(opaque)
	if err != nil {
		return append(dst, "null"...)
	}
	return append(dst, b...)
}

// AppendActionParameters appends the JSON array-of-{key,value} shape VDA5050
// uses for actionParameters, in the stable order keys is given in (callers
// own key ordering since map iteration order is not guaranteed).
func AppendActionParameters(dst []byte, params map[string]vda.Value, keys []string) []byte {
	dst = append(dst, '[')
	wrote := false
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			continue
		}
		if wrote {
			dst = append(dst, ',')
		}
		wrote = true
		dst = append(dst, `{"key":`...)
		dst = jsonenc.AppendString(dst, k)
		dst = append(dst, `,"value":`...)
		dst = AppendValue(dst, v)
		dst = append(dst, '}')
	}
	return append(dst, ']')
}

// AppendResultString appends result as a JSON string, or the literal null if
// result is nil, mirroring an ActionState's optional resultDescription.
func AppendResultString(dst []byte, result *string) []byte {
	if result == nil {
		return append(dst, "null"...)
	}
	return jsonenc.AppendString(dst, *result)
}

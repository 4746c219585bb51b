package importer

import (
	"math"
	"sort"

	"github.com/Faultbox/scenepack/pkg/datafile"
)

// Reserved object extras keys. The rest become custom properties.
const (
	extraCollections = "collections"
	extraHideRender  = "hide_render"
	extraModifiers   = "modifiers"
	extraLibrary     = "library"
	extraCurve       = "curve"
)

// objectExtras holds the reserved keys of a node's extras.
type objectExtras struct {
	collections []string
	hideRender  bool
	modifiers   []string
	library     string
	curve       bool
	props       *datafile.Dict
}

func parseObjectExtras(extras any) objectExtras {
	var out objectExtras
	m, ok := extras.(map[string]any)
	if !ok {
		return out
	}

	rest := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case extraCollections:
			out.collections = stringList(v)
		case extraHideRender:
			out.hideRender, _ = v.(bool)
		case extraModifiers:
			if n, ok := v.(float64); ok {
				// A bare count: the modifier names do not matter.
				for i := 0; i < int(n); i++ {
					out.modifiers = append(out.modifiers, "modifier")
				}
			} else {
				out.modifiers = stringList(v)
			}
		case extraLibrary:
			out.library, _ = v.(string)
		case extraCurve:
			out.curve, _ = v.(bool)
		default:
			rest[k] = v
		}
	}
	out.props = toDict(rest)
	return out
}

// extrasDict converts an extras object into a property bag, nil when extras
// is not an object.
func extrasDict(extras any) *datafile.Dict {
	m, ok := extras.(map[string]any)
	if !ok {
		return nil
	}
	return toDict(m)
}

// toDict converts a JSON object with keys in sorted order.
func toDict(m map[string]any) *datafile.Dict {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := datafile.NewDict()
	for _, k := range keys {
		d.Set(k, toValue(m[k]))
	}
	return d
}

// toValue maps decoded JSON to property values. Integral numbers become
// int64. Booleans and nulls pass through; the encoder drops them.
func toValue(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toValue(e)
		}
		return out
	case map[string]any:
		return toDict(x)
	default:
		return v
	}
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Package jsonutil flattens nested JSON objects into dotted column names, the
// shape the readers feed into a table. Arrays are kept intact; only objects
// are descended into, so {"a":{"b":1},"c":[2]} flattens to {"a.b":1,"c":[2]}.
package jsonutil

// Flatten converts a decoded JSON object into a single-level map with dotted
// keys. Non-object input yields a nil map.
func Flatten(v any) map[string]any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any)
	flattenInto(out, "", obj)
	return out
}

func flattenInto(out map[string]any, prefix string, obj map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

package builtin

import "encoding/json"

// structToMap round-trips v through JSON to get a plain map[string]any,
// used by executors whose underlying operation returns a typed result
// struct that needs to become an item's JSON value.
func structToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package models

import "encoding/json"

// splitKnown decodes the known keys of a JSON object into their destinations and
// returns every other key untouched. A known key whose value does not decode is kept
// in the returned map so that nothing is lost on the way back out.
func splitKnown(data []byte, known map[string]any) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key, dest := range known {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dest); err == nil {
			delete(raw, key)
		}
	}
	return raw, nil
}

// mergeKnown writes known fields over the preserved extra keys. Known values set to
// nil are omitted. Map keys are emitted sorted by encoding/json.
func mergeKnown(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		if v == nil {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return json.Marshal(out)
}

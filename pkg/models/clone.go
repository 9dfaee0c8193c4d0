package models

import "encoding/json"

// deepClone copies v through its JSON representation. Every model here is
// JSON-serializable by construction (they all round-trip through the durable
// stores), so the round trip is a structural copy that cannot drift as
// fields are added.
func deepClone[T any](v *T) *T {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		// Models contain no channels, funcs or cycles; Marshal cannot fail.
		panic("models: deep clone marshal: " + err.Error())
	}

	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic("models: deep clone unmarshal: " + err.Error())
	}

	return out
}

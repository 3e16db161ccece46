package kafka

import "encoding/json"

// MustMarshal encodes v for a message value. Only types that always encode
// (plain structs, raw JSON) are passed here.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

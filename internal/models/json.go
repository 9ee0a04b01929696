package models

import "encoding/json"

// marshalJSON is a small shared helper so each wire-shape MarshalJSON method
// doesn't repeat the import.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

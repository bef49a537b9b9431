package commsutil

import (
	"bytes"
	"encoding/json"
	"errors"
)

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target. Numbers decoded
// into interface{} values arrive as json.Number so object IDs keep full precision.
func DecodePayload(data []byte, v interface{}) error {
	if len(data) == 0 {
		return errors.New("commsutil:codec - empty payload")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

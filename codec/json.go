package codec

import (
	"bytes"
	"encoding/json"
)

// JSON is the default envelope codec. Decode keeps numbers as json.Number so
// integers and reals stay distinguishable after the round trip.
type JSON[V any] struct{}

var _ Codec[any] = JSON[any]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	err := dec.Decode(&v)
	return v, err
}

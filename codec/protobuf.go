package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoValue carries JSON-compatible values as a google.protobuf.Value.
// It refuses anything structpb cannot express, which makes it the strictest
// envelope: every number comes back as float64.
type ProtoValue struct{}

var _ Codec[any] = ProtoValue{}

func (ProtoValue) Encode(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (ProtoValue) Decode(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}

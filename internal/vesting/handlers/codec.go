package handlers

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content subtype ("application/grpc+json") the
// service speaks.
const codecName = "json"

// jsonCodec marshals the plain Go request and response types of the
// vesting service.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CallJSON selects the JSON codec on a client call.
func CallJSON() grpc.CallOption {
	return grpc.CallContentSubtype(codecName)
}

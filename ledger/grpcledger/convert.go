package grpcledger

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct flattens a typed value to a structpb.Struct through its JSON form,
// so the wire field names always match the ledger package's JSON tags.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct rehydrates a typed value from a structpb.Struct.
func fromStruct(s *structpb.Struct, out any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

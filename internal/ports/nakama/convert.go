package nakama

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mhbka/rummy/internal/app"
	"github.com/mhbka/rummy/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var errBadRequest = errors.New("bad request")

// toStruct converts a json-tagged payload into a protobuf Struct.
func toStruct(payload any) (*structpb.Struct, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// encodePayload renders a payload as protojson for the wire.
func encodePayload(payload any) ([]byte, error) {
	s, err := toStruct(payload)
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{EmitUnpopulated: true}.Marshal(s)
}

// decodeRequest parses a client message. An empty message is an empty request.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(data) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return s, nil
}

func requestInt(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", errBadRequest, key)
	}
	return toInt(v, key)
}

// requestOptionalInt returns nil when key is absent or null.
func requestOptionalInt(req *structpb.Struct, key string) (*int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, err := toInt(v, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func requestInts(req *structpb.Struct, key string) ([]int, error) {
	list := req.GetFields()[key].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %s must be a list", errBadRequest, key)
	}
	out := make([]int, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		n, err := toInt(v, key)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func requestString(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key].GetKind().(*structpb.Value_StringValue)
	if !ok || v.StringValue == "" {
		return "", fmt.Errorf("%w: %s is required", errBadRequest, key)
	}
	return v.StringValue, nil
}

func toInt(v *structpb.Value, key string) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return int(f), nil
}

// errorCode maps an app or engine error to its game_error code.
func errorCode(err error) int32 {
	switch {
	case errors.Is(err, errBadRequest):
		return ErrCodeBadRequest
	case errors.Is(err, errNotOwner):
		return ErrCodeNotOwner
	case errors.Is(err, app.ErrNotYourTurn):
		return ErrCodeNotYourTurn
	case errors.Is(err, app.ErrUnknownPlayer):
		return ErrCodeUnknownPlayer
	case errors.Is(err, app.ErrNoGame):
		return ErrCodeNoGame
	case errors.Is(err, app.ErrTooFewPlayers):
		return ErrCodeTooFewPlayers
	}
	switch domain.ErrorKind(err) {
	case "configuration":
		return ErrCodeConfiguration
	case "capacity":
		return ErrCodeCapacity
	case "index":
		return ErrCodeIndex
	case "rule_violation":
		return ErrCodeRuleViolation
	case "phase_sequence":
		return ErrCodePhaseSequence
	}
	return ErrCodeUnknown
}

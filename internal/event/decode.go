package event

import (
	"encoding/json"
	"fmt"
)

// DecodePayload returns an event payload as T. In-process publishers hand
// over T or *T directly; payloads read back from the dead-letter file are
// generic maps and go through JSON.
func DecodePayload[T any](input interface{}) (T, error) {
	var result T
	switch v := input.(type) {
	case T:
		return v, nil
	case *T:
		if v == nil {
			return result, fmt.Errorf("nil %T payload", v)
		}
		return *v, nil
	case nil:
		return result, fmt.Errorf("missing payload, want %T", result)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return result, fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("failed to decode payload as %T: %w", result, err)
	}
	return result, nil
}

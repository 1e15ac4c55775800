package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// mergePayload combines a GLOBAL baseline payload with a BRANCH_OVERRIDE
// payload field by field: objects merge recursively, arrays and primitives
// are replaced wholesale by the override.
func mergePayload(base, override interface{}) interface{} {
	if override == nil {
		return base
	}
	if base == nil {
		return override
	}
	baseMap, baseOK := base.(map[string]interface{})
	overrideMap, overrideOK := override.(map[string]interface{})
	if !baseOK || !overrideOK {
		return override
	}
	out := make(map[string]interface{}, len(baseMap)+len(overrideMap))
	for k, v := range baseMap {
		out[k] = v
	}
	for k, v := range overrideMap {
		out[k] = mergePayload(out[k], v)
	}
	return out
}

func decodePayload(raw datatypes.JSON) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode policy payload: %w", err)
	}
	return out, nil
}

package util

import "encoding/json"

// ConvertStructToJson marshals v to a JSON string, returning "{}" on
// failure. Used for queue payloads where a marshal error should not fail
// the surrounding operation.
func ConvertStructToJson(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

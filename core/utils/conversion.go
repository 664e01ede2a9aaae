package utils

import (
	"reflect"
	"strings"
)

// ToBool reads a flag value. Strings and byte slices are true for "1",
// "true", "yes" and "on" in any case; integers are true when non-zero.
// Anything else, including nil, is false.
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return truthy(v)
	case []byte:
		return truthy(string(v))
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	}
	return false
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

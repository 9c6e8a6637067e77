package storage

import (
	"strconv"
)

// StrToUint converts a string to a uint, returning 0 and the error on failure.
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

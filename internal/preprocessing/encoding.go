package preprocessing

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned for equipment types outside L, M and H.
var ErrUnknownType = errors.New("unknown equipment type")

// TypeCategories lists the equipment quality variants in code order:
// low, medium and high.
var TypeCategories = []string{"L", "M", "H"}

var typeCodes = map[string]float64{"L": 0, "M": 1, "H": 2}

// EncodeType maps L, M and H to 0, 1 and 2. Anything else, including padded
// or lower-case variants, is rejected.
func EncodeType(s string) (float64, error) {
	code, ok := typeCodes[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return code, nil
}

// DecodeType is the inverse of EncodeType.
func DecodeType(code float64) (string, error) {
	i := int(code)
	if float64(i) != code || i < 0 || i >= len(TypeCategories) {
		return "", fmt.Errorf("%w: code %v", ErrUnknownType, code)
	}
	return TypeCategories[i], nil
}

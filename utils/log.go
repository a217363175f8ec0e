package utils

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ToZeroLogArray renders every element with its String() method.
func ToZeroLogArray[T fmt.Stringer](elems []T) *zerolog.Array {
	arr := zerolog.Arr()

	for _, elem := range elems {
		arr.Str(elem.String())
	}

	return arr
}

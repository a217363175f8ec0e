package utils

import (
	"errors"
	"slices"
)

func ErrorIsAnyOf(err error, targets ...error) bool {
	return slices.ContainsFunc(targets, func(target error) bool {
		return errors.Is(err, target)
	})
}

package domain

import "coinwhisperer/pkg/errors"

func errOutOfRange(field string, value float64) error {
	return errors.NewValidationError(field, "must be within [0,1]", value)
}

func errBadEnum(field, value string) error {
	return errors.NewValidationError(field, "unknown value", value)
}

package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

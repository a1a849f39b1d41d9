package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/swizkhalifaa/Distributed-System-Project-C/errors"
)

var validate = validator.New()

// LoginRequest carries the raw login fields before any store access.
// Both fields are mandatory; an empty field must fail without touching
// the user store.
type LoginRequest struct {
	Username   string `validate:"required,max=64"`
	Credential string `validate:"required,max=72"`
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

// Package validator provides a small validation abstraction for usecase
// inputs.
//
// Usecases depend on the Validator interface so validation can be shared and
// tested consistently. The go-playground/validator v10 implementation adds the
// base32 and otpalgo tags used by account inputs.
package validator

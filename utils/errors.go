package utils

import "github.com/pkg/errors"

// NewUnknownModelError is used when a config names a backing model nothing registered.
func NewUnknownModelError(kind, model string) error {
	return errors.Errorf("unknown %s model %q", kind, model)
}

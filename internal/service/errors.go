package service

import "errors"

var (
	// ErrInvalidVariantPath is returned when a variant is not addressed as <work-id>/<variant-id>.
	ErrInvalidVariantPath = errors.New("invalid variant path, expected format is <work-id>/<variant-id>")
	// ErrNoVariants is returned when a work directory holds no variant to seed.
	ErrNoVariants = errors.New("work has no variants")
)

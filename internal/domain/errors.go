package domain

import "errors"

var (
	// ErrNotFound is returned when a product does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateName is returned when a product with the same name already exists
	ErrDuplicateName = errors.New("product name already exists")

	// ErrInvalidInput is returned when request validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRating is returned when a review rating is missing or outside 1..5
	ErrInvalidRating = errors.New("review rating must be between 1 and 5")

	// ErrInvalidSupplier is returned when the supplier name is blank
	ErrInvalidSupplier = errors.New("supplier name is required")

	// ErrInvalidSupplierEmail is returned when the supplier contact email is malformed
	ErrInvalidSupplierEmail = errors.New("invalid supplier email format")

	// ErrInvalidSupplierRating is returned when the supplier rating is outside 0..5
	ErrInvalidSupplierRating = errors.New("supplier rating must be between 0 and 5")
)

// IsValidationError reports whether err is one of the validation failures
// detected before a product reaches the store.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidSupplier) ||
		errors.Is(err, ErrInvalidSupplierEmail) ||
		errors.Is(err, ErrInvalidSupplierRating)
}

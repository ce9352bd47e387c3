package invoice

import "errors"

var (
	// ErrMissingAccountID indicates a record without its join key.
	ErrMissingAccountID = errors.New("invoice: missing account id")
	// ErrMissingDocumentID indicates a record without a document identity.
	ErrMissingDocumentID = errors.New("invoice: missing document id")
	// ErrNegativeConsumption indicates a negative consumption reading.
	ErrNegativeConsumption = errors.New("invoice: negative consumption")
	// ErrNegativeAmount indicates a negative monetary amount.
	ErrNegativeAmount = errors.New("invoice: negative amount")
	// ErrInvalidPeriod indicates an unparseable or out-of-range billing period.
	ErrInvalidPeriod = errors.New("invoice: invalid billing period")
)

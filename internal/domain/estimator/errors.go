package estimator

import "errors"

var (
	// ErrInvalidLoadInput rejects negative or non-finite appliance rows and billing samples.
	ErrInvalidLoadInput = errors.New("invalid load input")
	// ErrInvalidSizingInput rejects a negative target energy or an unusable sizing config.
	ErrInvalidSizingInput = errors.New("invalid sizing input")
	// ErrUnsupportedPanelSpec is returned for a panel wattage outside the configured set.
	ErrUnsupportedPanelSpec = errors.New("unsupported panel spec")
	// ErrDivisionUndefined signals a payback or offset that cannot be calculated.
	ErrDivisionUndefined = errors.New("division undefined")
	// ErrInvalidBillInput rejects negative bills and malformed installment requests.
	ErrInvalidBillInput = errors.New("invalid bill input")
)

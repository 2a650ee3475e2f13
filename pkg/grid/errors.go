package grid

// Error types attached to errors returned by this package. Use
// errors.Type(err) from go-tooling to classify them.
const (
	ErrTypeInvalidLevel  = "grid-invalid-level"
	ErrTypeCellBudget    = "grid-cell-budget"
	ErrTypeNonMonotone   = "grid-non-monotone-height"
	ErrTypeInvalidHeight = "grid-invalid-height"
)

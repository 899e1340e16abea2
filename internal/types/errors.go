package types

import "errors"

// Sentinel errors for commerce operations.
// Structural failures (wrong type, missing field, unknown action) fail closed
// with one of these; numeric content errors never surface as errors.
var (
	// ErrInvalidProduct indicates a product is missing its name, sku or price,
	// or one of them has the wrong type.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInvalidTransactionAttributes indicates transaction attributes without an id.
	ErrInvalidTransactionAttributes = errors.New("invalid transaction attributes")

	// ErrInvalidPromotion indicates a promotion missing id, creative or name.
	ErrInvalidPromotion = errors.New("invalid promotion")

	// ErrInvalidImpression indicates an impression missing its name or products.
	ErrInvalidImpression = errors.New("invalid impression")

	// ErrInvalidActionType indicates an action type outside its enumeration.
	ErrInvalidActionType = errors.New("invalid action type")

	// ErrNoEntities indicates a log call without any product, promotion or impression.
	ErrNoEntities = errors.New("commerce event requires at least one entity")

	// ErrCartNotFound indicates no cart has been persisted for an identity.
	ErrCartNotFound = errors.New("cart not found")

	// ErrUnsupportedStorage indicates a storage URL scheme with no backend.
	ErrUnsupportedStorage = errors.New("unsupported storage scheme")
)

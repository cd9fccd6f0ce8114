package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidTimeWindow    ErrorCode = 120

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeHistoricalDataFailed  ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Setup errors (400-499)
	ErrCodeUnsupportedSetup ErrorCode = 403
	ErrCodeVersionMismatch  ErrorCode = 404
	ErrCodeDetectorFault    ErrorCode = 405

	// Engine errors (600-699)
	ErrCodeEngineInitFailed ErrorCode = 601
	ErrCodeEngineRunFailed  ErrorCode = 602
	ErrCodeEngineNoSource   ErrorCode = 608

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 704
)

// Category groups error codes by their hundreds range.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryValidation Category = "validation"
	CategoryData       Category = "data"
	CategoryIndicator  Category = "indicator"
	CategorySetup      Category = "setup"
	CategoryEngine     Category = "engine"
	CategoryMarketData Category = "market_data"
)

// Category returns the group the code belongs to.
// Codes outside every known range are general.
func (c ErrorCode) Category() Category {
	switch c / 100 {
	case 1:
		return CategoryValidation
	case 2:
		return CategoryData
	case 3:
		return CategoryIndicator
	case 4:
		return CategorySetup
	case 6:
		return CategoryEngine
	case 7:
		return CategoryMarketData
	default:
		return CategoryGeneral
	}
}

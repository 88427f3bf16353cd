package errors

// ErrorCode identifies an application error category at the HTTP boundary
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002

	ErrorCode_ANALYSIS_PARSE_FAILED    ErrorCode = 2000
	ErrorCode_ANALYSIS_REMOTE_FAILED   ErrorCode = 2001
	ErrorCode_ANALYSIS_INPUT_TOO_LARGE ErrorCode = 2002

	ErrorCode_DISPATCH_PRECONDITION ErrorCode = 3000

	ErrorCode_INTEGRATION_TRACKER_FAILED ErrorCode = 4000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ANALYSIS_PARSE_FAILED:      "ANALYSIS_PARSE_FAILED",
	ErrorCode_ANALYSIS_REMOTE_FAILED:     "ANALYSIS_REMOTE_FAILED",
	ErrorCode_ANALYSIS_INPUT_TOO_LARGE:   "ANALYSIS_INPUT_TOO_LARGE",
	ErrorCode_DISPATCH_PRECONDITION:      "DISPATCH_PRECONDITION",
	ErrorCode_INTEGRATION_TRACKER_FAILED: "INTEGRATION_TRACKER_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

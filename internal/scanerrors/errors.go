// Package scanerrors provides the typed error kinds used across the scan
// pipeline. Named scanerrors, not errors, so call sites can import both
// it and the standard library package side by side.
package scanerrors

import "errors"

/* ErrorCode names one of the semantic error kinds the pipeline can raise. */
type ErrorCode string

const (
	InvalidInput            ErrorCode = "INVALID_INPUT"
	DatabaseConnection      ErrorCode = "DATABASE_CONNECTION"
	MetadataExtraction      ErrorCode = "METADATA_EXTRACTION"
	Sampling                ErrorCode = "SAMPLING"
	SQL                     ErrorCode = "SQL"
	PiiDetection            ErrorCode = "PII_DETECTION"
	NerUnavailable          ErrorCode = "NER_UNAVAILABLE"
	QuasiIdentifierAnalysis ErrorCode = "QUASI_IDENTIFIER_ANALYSIS"
	ReportGeneration        ErrorCode = "REPORT_GENERATION"
	IllegalStateTransition  ErrorCode = "ILLEGAL_STATE_TRANSITION"
	Unexpected              ErrorCode = "UNEXPECTED"
)

/* ScanError wraps a cause with a classifying code and optional details. */
type ScanError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

/* New builds a ScanError with no wrapped cause. */
func New(code ErrorCode, message string) *ScanError {
	return &ScanError{Code: code, Message: message}
}

/* Wrap attaches a classifying code to an existing error. */
func Wrap(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{Code: code, Message: message, Err: err}
}

/* WithDetails returns a copy of e carrying additional structured context. */
func (e *ScanError) WithDetails(details map[string]interface{}) *ScanError {
	return &ScanError{Code: e.Code, Message: e.Message, Err: e.Err, Details: details}
}

/* IsCode reports whether err is a *ScanError with the given code. */
func IsCode(err error, code ErrorCode) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

/* As extracts a *ScanError from err, if any wraps it. */
func As(err error) (*ScanError, bool) {
	var se *ScanError
	ok := errors.As(err, &se)
	return se, ok
}

/* Terminal reports whether the code ends the job (FAILED), as opposed to a
transient or logged-only error. */
func (c ErrorCode) Terminal() bool {
	switch c {
	case NerUnavailable, QuasiIdentifierAnalysis, IllegalStateTransition:
		return false
	default:
		return true
	}
}

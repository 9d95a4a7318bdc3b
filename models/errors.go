package models

import (
	"errors"
	"fmt"
)

// Error codes used in logs and internal error handling.
const (
	ErrCodeNavigation     = "NAV_FAILED"
	ErrCodeTimeout        = "NAV_TIMEOUT"
	ErrCodeCaptcha        = "CAPTCHA_BLOCKED"
	ErrCodeProxyExhausted = "PROXY_EXHAUSTED"
	ErrCodeIPLeak         = "IP_LEAK"
	ErrCodeLoginFailed    = "LOGIN_FAILED"
	ErrCodeOTPInvalid     = "OTP_INVALID"
	ErrCodeExtraction     = "EXTRACT_FAILED"
	ErrCodeCSVWrite       = "CSV_WRITE_FAILED"
	ErrCodeBrowserCrash   = "BROWSER_CRASH"
	ErrCodeBadConfig      = "BAD_CONFIG"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the error code of err, or empty when err carries none.
// Retry and skip decisions branch on the code rather than the message.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

package errors

import (
	"errors"
	"fmt"
)

// Code identifies the class of an analytics error
type Code string

const (
	CodeInsufficientData Code = "insufficient_data"
	CodeModelFailure     Code = "model_failure"
	CodeConfiguration    Code = "configuration_error"
)

// AnalyticsError represents an error produced by the analytics core
type AnalyticsError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Metric  string `json:"metric,omitempty"`
	Err     error  `json:"-"`
}

func (e *AnalyticsError) Error() string {
	if e.Metric != "" {
		return fmt.Sprintf("code=%s, metric=%s, message=%s", e.Code, e.Metric, e.Message)
	}
	return fmt.Sprintf("code=%s, message=%s", e.Code, e.Message)
}

func (e *AnalyticsError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match on the error code
func (e *AnalyticsError) Is(target error) bool {
	t, ok := target.(*AnalyticsError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Common sentinel errors for errors.Is checks
var (
	ErrInsufficientData = &AnalyticsError{Code: CodeInsufficientData, Message: "insufficient data"}
	ErrModelFailure     = &AnalyticsError{Code: CodeModelFailure, Message: "model failure"}
	ErrConfiguration    = &AnalyticsError{Code: CodeConfiguration, Message: "configuration error"}
)

// NewInsufficientData reports that a metric has too few observations
func NewInsufficientData(metric string, have, need int) *AnalyticsError {
	return &AnalyticsError{
		Code:    CodeInsufficientData,
		Metric:  metric,
		Message: fmt.Sprintf("need at least %d observations, have %d", need, have),
	}
}

// NewModelFailure reports that a forecast model could not fit
func NewModelFailure(model, metric string, err error) *AnalyticsError {
	return &AnalyticsError{
		Code:    CodeModelFailure,
		Metric:  metric,
		Message: fmt.Sprintf("model %q failed to fit", model),
		Err:     err,
	}
}

// NewConfiguration reports an invalid configuration value
func NewConfiguration(message string) *AnalyticsError {
	return &AnalyticsError{
		Code:    CodeConfiguration,
		Message: message,
	}
}

// IsInsufficientData checks if an error is an insufficient-data error
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// IsModelFailure checks if an error is a model-fit failure
func IsModelFailure(err error) bool {
	return errors.Is(err, ErrModelFailure)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// GetCode returns the analytics error code, or empty for foreign errors
func GetCode(err error) Code {
	var ae *AnalyticsError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

// Severity is the tier a failure is classified into. It decides whether the
// current operation aborts, retries, or merely logs.
type Severity string

const (
	// SeverityCritical stops the current operation and skips remaining retries.
	SeverityCritical Severity = "critical"
	// SeverityRecoverable lets the caller continue or retry.
	SeverityRecoverable Severity = "recoverable"
	// SeverityWarning is logged and never implies a retry.
	SeverityWarning Severity = "warning"
)

// Classify maps a failure and its operation context to a severity tier.
// It is a pure function: identical inputs always yield the same tier.
//
// The check order is fixed. Context checks for warning-signaling phrases
// ("json", "parse", "validation") run before the IO error-kind check, so a
// file-not-found raised during validation still classifies as a warning.
func Classify(err error, opContext string) Severity {
	ctx := strings.ToLower(opContext)

	if strings.Contains(ctx, "system_crash") || strings.Contains(ctx, "critical") || isFatalKind(err) {
		return SeverityCritical
	}

	if isTimeoutKind(err) || isNetworkKind(err) ||
		strings.Contains(ctx, "network") || strings.Contains(ctx, "timeout") {
		return SeverityRecoverable
	}

	// "io" must match exactly: "validation" contains it as a substring.
	if strings.Contains(ctx, "file_operation") || ctx == "io" {
		return SeverityRecoverable
	}

	if strings.Contains(ctx, "json") || strings.Contains(ctx, "parse") || isParseKind(err) {
		return SeverityWarning
	}

	if strings.Contains(ctx, "validation") {
		return SeverityWarning
	}

	if isIOKind(err) {
		return SeverityRecoverable
	}

	if isValueKind(err) {
		return SeverityWarning
	}

	return SeverityRecoverable
}

func isFatalKind(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	cat := categoryOf(err)
	return cat == ErrCatInterrupted || cat == ErrCatSystem
}

func isTimeoutKind(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return categoryOf(err) == ErrCatTimeout
}

func isNetworkKind(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return categoryOf(err) == ErrCatNetwork
}

func isParseKind(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return true
	}
	return categoryOf(err) == ErrCatParse
}

func isIOKind(err error) bool {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	cat := categoryOf(err)
	return cat == ErrCatIO || cat == ErrCatNotFound
}

func isValueKind(err error) bool {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return true
	}
	return categoryOf(err) == ErrCatValidation
}

// categoryOf is GetCategory without the internal fallback, so kind probes
// only see explicitly categorized domain errors.
func categoryOf(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ""
}

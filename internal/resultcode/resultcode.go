// Package resultcode classifies XRPL engine result codes and extracts them
// from client-library error text. Codes are short strings whose three-letter
// prefix names the outcome class (applied, claimed-fee-only, failed,
// local, malformed, retry).
package resultcode

import (
	"errors"
	"fmt"
	"regexp"
)

// Success is the code of a transaction applied to the ledger.
const Success = "tesSUCCESS"

// Class is an engine result class, identified by code prefix.
type Class string

const (
	ClassSuccess   Class = "tes" // applied
	ClassClaimed   Class = "tec" // fee claimed, not applied
	ClassFailure   Class = "tef" // failed, not applied
	ClassLocal     Class = "tel" // local error, never relayed
	ClassMalformed Class = "tem" // malformed transaction
	ClassRetry     Class = "ter" // not applied, retry possible
	ClassUnknown   Class = ""
)

// codePattern matches an engine result code embedded in arbitrary text,
// e.g. "transaction failed: tecNO_DST" or a client exception message.
var codePattern = regexp.MustCompile(`\b(tes|tec|tef|tel|tem|ter)[A-Z][A-Z0-9_]*\b`)

// ClassOf returns the class a code belongs to, ClassUnknown when the string
// is not a plausible result code. The whole string must be a code: text that
// merely contains one (an error message, say) is not itself a code.
func ClassOf(code string) Class {
	if codePattern.FindString(code) != code {
		return ClassUnknown
	}
	return Class(code[:3])
}

// IsSuccess reports whether the code is in the success class.
func IsSuccess(code string) bool {
	return ClassOf(code) == ClassSuccess
}

// Extract finds the first engine result code embedded in text.
func Extract(text string) (string, bool) {
	code := codePattern.FindString(text)
	return code, code != ""
}

// CodedError is a submission error that may carry an engine result code
// recovered from the underlying client error. A non-empty Code means the
// network evaluated the transaction and rejected it with that result; an
// empty Code is an unclassified transport or validation failure.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }

// WrapError wraps a client-library error, extracting an embedded result code
// when present. Nil passes through.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}
	code, _ := Extract(err.Error())
	return &CodedError{Code: code, Err: err}
}

// CodeFrom returns the result code carried by an error chain, if any.
func CodeFrom(err error) (string, bool) {
	var coded *CodedError
	if errors.As(err, &coded) && coded.Code != "" {
		return coded.Code, true
	}
	return "", false
}

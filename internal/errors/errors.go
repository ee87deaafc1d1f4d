/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package errors provides the structured error taxonomy for FlyMem.

Every user-facing failure raised by the engine is an *Error carrying a
numeric code, a category, a message and optional detail/hint text. The
category tells the caller at which phase and for which reason a statement
failed:

  - SYNTAX:        the statement text could not be parsed
  - NOT_SUPPORTED: a recognized construct the engine does not implement
  - NOT_FOUND:     a referenced table, column or schema object is missing
  - CAST:          a value cannot be converted to a required type
  - QUERY:         shape errors such as value count mismatches or
    duplicate aliases
  - CONSTRAINT:    unique and not-null violations
  - INTERNAL:      a broken engine invariant, such as reusing a terminal
    transaction

Planning raises NOT_SUPPORTED, NOT_FOUND and QUERY errors before any data is
touched. CAST and CONSTRAINT errors are data dependent and surface during
execution. INTERNAL errors are raised with panic since they signal a
programming error in the embedding, not a bad statement.

Error codes are grouped by category:

	1000-1999  syntax
	2000-2999  not found
	3000-3999  query shape
	4000-4999  cast
	5000-5999  constraint
	6000-6999  not supported
	9000-9999  internal
*/
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error identifier.
type ErrorCode int

const (
	// Syntax errors (1000-1999)
	ErrCodeSyntax          ErrorCode = 1000
	ErrCodeUnexpectedToken ErrorCode = 1001
	ErrCodeUnclosedString  ErrorCode = 1002

	// Not found errors (2000-2999)
	ErrCodeNotFound       ErrorCode = 2000
	ErrCodeTableNotFound  ErrorCode = 2001
	ErrCodeColumnNotFound ErrorCode = 2002
	ErrCodeObjectNotFound ErrorCode = 2003

	// Query shape errors (3000-3999)
	ErrCodeQuery           ErrorCode = 3000
	ErrCodeDuplicateAlias  ErrorCode = 3001
	ErrCodeAmbiguousColumn ErrorCode = 3002
	ErrCodeDuplicateObject ErrorCode = 3003
	ErrCodeValueCount      ErrorCode = 3004
	ErrCodeDependentObject ErrorCode = 3005
	ErrCodeTypeMismatch    ErrorCode = 3006
	ErrCodeCardinality     ErrorCode = 3007

	// Cast errors (4000-4999)
	ErrCodeCast           ErrorCode = 4000
	ErrCodeInvalidJSON    ErrorCode = 4001
	ErrCodeDivisionByZero ErrorCode = 4002
	ErrCodeOverflow       ErrorCode = 4003
	ErrCodeCannotCoerce   ErrorCode = 4004

	// Constraint errors (5000-5999)
	ErrCodeConstraint    ErrorCode = 5000
	ErrCodeDuplicateKey  ErrorCode = 5001
	ErrCodeNullViolation ErrorCode = 5002

	// Not supported errors (6000-6999)
	ErrCodeNotSupported ErrorCode = 6000

	// Transaction errors (7000-7999)
	ErrCodeTransaction     ErrorCode = 7000
	ErrCodeTxNotActive     ErrorCode = 7001
	ErrCodeTxAlreadyActive ErrorCode = 7002

	// Internal errors (9000-9999)
	ErrCodeInternal         ErrorCode = 9000
	ErrCodeTerminalTxReused ErrorCode = 9001
)

// Category represents the error category.
type Category string

const (
	CategorySyntax       Category = "SYNTAX"
	CategoryNotFound     Category = "NOT_FOUND"
	CategoryQuery        Category = "QUERY"
	CategoryCast         Category = "CAST"
	CategoryConstraint   Category = "CONSTRAINT"
	CategoryNotSupported Category = "NOT_SUPPORTED"
	CategoryTransaction  Category = "TRANSACTION"
	CategoryInternal     Category = "INTERNAL"
)

// Error represents a structured error in FlyMem.
type Error struct {
	Code     ErrorCode
	Category Category
	Message  string
	Detail   string
	Hint     string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ERROR %d (%s): %s - %s", e.Code, e.Category, e.Message, e.Detail)
	}
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.Category, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// SQLSTATE returns the PostgreSQL SQLSTATE code for this error.
func (e *Error) SQLSTATE() SQLSTATE {
	return ToSQLSTATE(e.Code)
}

// UserMessage returns a user-friendly error message.
func (e *Error) UserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHINT: %s", e.Hint)
	}
	return msg
}

// WithDetail adds detail to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithHint adds a hint to the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ============================================================================
// Syntax Error Constructors
// ============================================================================

// NewSyntaxError creates a new syntax error.
func NewSyntaxError(message string) *Error {
	return &Error{
		Code:     ErrCodeSyntax,
		Category: CategorySyntax,
		Message:  message,
	}
}

// UnexpectedToken creates an error for unexpected tokens.
func UnexpectedToken(expected, got string) *Error {
	return &Error{
		Code:     ErrCodeUnexpectedToken,
		Category: CategorySyntax,
		Message:  fmt.Sprintf("syntax error: expected %s, got %s", expected, got),
		Hint:     "Check your SQL syntax",
	}
}

// UnclosedString creates an error for a string literal missing its closing quote.
func UnclosedString() *Error {
	return &Error{
		Code:     ErrCodeUnclosedString,
		Category: CategorySyntax,
		Message:  "unterminated quoted string",
	}
}

// ============================================================================
// Not Found Error Constructors
// ============================================================================

// TableNotFound creates an error for missing tables.
func TableNotFound(table string) *Error {
	return &Error{
		Code:     ErrCodeTableNotFound,
		Category: CategoryNotFound,
		Message:  fmt.Sprintf("relation \"%s\" does not exist", table),
	}
}

// ColumnNotFound creates an error for missing columns.
func ColumnNotFound(column string) *Error {
	return &Error{
		Code:     ErrCodeColumnNotFound,
		Category: CategoryNotFound,
		Message:  fmt.Sprintf("column \"%s\" does not exist", column),
	}
}

// ObjectNotFound creates an error for a missing index, sequence or other
// schema object.
func ObjectNotFound(kind, name string) *Error {
	return &Error{
		Code:     ErrCodeObjectNotFound,
		Category: CategoryNotFound,
		Message:  fmt.Sprintf("%s \"%s\" does not exist", kind, name),
	}
}

// ============================================================================
// Query Error Constructors
// ============================================================================

// NewQueryError creates a new query shape error.
func NewQueryError(message string) *Error {
	return &Error{
		Code:     ErrCodeQuery,
		Category: CategoryQuery,
		Message:  message,
	}
}

// DuplicateAlias creates an error for a FROM-list alias used twice.
func DuplicateAlias(alias string) *Error {
	return &Error{
		Code:     ErrCodeDuplicateAlias,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("table name \"%s\" specified more than once", alias),
	}
}

// AmbiguousColumn creates an error for a column reference that matches
// several sources.
func AmbiguousColumn(column string) *Error {
	return &Error{
		Code:     ErrCodeAmbiguousColumn,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("column reference \"%s\" is ambiguous", column),
	}
}

// DuplicateObject creates an error for creating an object whose name is taken.
func DuplicateObject(kind, name string) *Error {
	return &Error{
		Code:     ErrCodeDuplicateObject,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("%s \"%s\" already exists", kind, name),
	}
}

// ValueCountMismatch creates an error for INSERT shape mismatches.
func ValueCountMismatch(columns, values int) *Error {
	msg := "INSERT has more expressions than target columns"
	if values < columns {
		msg = "INSERT has more target columns than expressions"
	}
	return &Error{
		Code:     ErrCodeValueCount,
		Category: CategoryQuery,
		Message:  msg,
		Detail:   fmt.Sprintf("%d columns, %d values", columns, values),
	}
}

// DependentObjects creates an error for drops blocked by dependent objects.
func DependentObjects(object, dependent string) *Error {
	return &Error{
		Code:     ErrCodeDependentObject,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("cannot drop %s because other objects depend on it", object),
		Detail:   fmt.Sprintf("%s depends on %s", dependent, object),
		Hint:     "Use DROP ... CASCADE to drop the dependent objects too",
	}
}

// TypeMismatch creates an error for operators applied to incompatible types.
func TypeMismatch(op, left, right string) *Error {
	return &Error{
		Code:     ErrCodeTypeMismatch,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("operator does not exist: %s %s %s", left, op, right),
		Hint:     "You might need to add explicit type casts",
	}
}

// CardinalityViolation creates an error for a call shape that expected a
// different number of rows.
func CardinalityViolation(expected string, got int) *Error {
	return &Error{
		Code:     ErrCodeCardinality,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("expected %s, got %d rows", expected, got),
	}
}

// ============================================================================
// Cast Error Constructors
// ============================================================================

// CastError creates an error for a failed value conversion.
func CastError(value, from, to string) *Error {
	return &Error{
		Code:     ErrCodeCast,
		Category: CategoryCast,
		Message:  fmt.Sprintf("cannot cast %s value %q to %s", from, value, to),
	}
}

// CannotCoerce creates an error for a cast between types that have no
// conversion path at all. It is raised while planning.
func CannotCoerce(from, to string) *Error {
	return &Error{
		Code:     ErrCodeCannotCoerce,
		Category: CategoryCast,
		Message:  fmt.Sprintf("cannot cast type %s to %s", from, to),
	}
}

// InvalidJSON creates an error for malformed JSON input.
func InvalidJSON(detail string) *Error {
	return &Error{
		Code:     ErrCodeInvalidJSON,
		Category: CategoryCast,
		Message:  "invalid input syntax for type json",
		Detail:   detail,
	}
}

// DivisionByZero creates an error for division or modulo by zero.
func DivisionByZero() *Error {
	return &Error{
		Code:     ErrCodeDivisionByZero,
		Category: CategoryCast,
		Message:  "division by zero",
	}
}

// Overflow creates an error for out-of-range numeric results.
func Overflow(typ string) *Error {
	return &Error{
		Code:     ErrCodeOverflow,
		Category: CategoryCast,
		Message:  fmt.Sprintf("%s out of range", typ),
	}
}

// ============================================================================
// Constraint Error Constructors
// ============================================================================

// DuplicateKey creates an error for unique index violations.
func DuplicateKey(index, key string) *Error {
	return &Error{
		Code:     ErrCodeDuplicateKey,
		Category: CategoryConstraint,
		Message:  fmt.Sprintf("duplicate key value violates unique constraint \"%s\"", index),
		Detail:   fmt.Sprintf("Key %s already exists.", key),
	}
}

// NotNullViolation creates an error for a NULL stored into a NOT NULL column.
func NotNullViolation(column, table string) *Error {
	return &Error{
		Code:     ErrCodeNullViolation,
		Category: CategoryConstraint,
		Message:  fmt.Sprintf("null value in column \"%s\" of relation \"%s\" violates not-null constraint", column, table),
	}
}

// ============================================================================
// Not Supported / Transaction / Internal Constructors
// ============================================================================

// NotSupported creates an error for recognized but unimplemented constructs.
func NotSupported(what string) *Error {
	return &Error{
		Code:     ErrCodeNotSupported,
		Category: CategoryNotSupported,
		Message:  fmt.Sprintf("not supported: %s", what),
	}
}

// TransactionNotActive creates an error for COMMIT/ROLLBACK without BEGIN.
func TransactionNotActive() *Error {
	return &Error{
		Code:     ErrCodeTxNotActive,
		Category: CategoryTransaction,
		Message:  "there is no transaction in progress",
	}
}

// TransactionAlreadyActive creates an error for a nested BEGIN.
func TransactionAlreadyActive() *Error {
	return &Error{
		Code:     ErrCodeTxAlreadyActive,
		Category: CategoryTransaction,
		Message:  "there is already a transaction in progress",
		Hint:     "COMMIT or ROLLBACK the current transaction first",
	}
}

// Internal creates an invariant violation error. It is used as a panic value.
func Internal(message string) *Error {
	return &Error{
		Code:     ErrCodeInternal,
		Category: CategoryInternal,
		Message:  message,
	}
}

// TerminalTransaction creates the error raised when a committed or rolled
// back transaction is used again.
func TerminalTransaction(id uint64, state, op string) *Error {
	return &Error{
		Code:     ErrCodeTerminalTxReused,
		Category: CategoryInternal,
		Message:  fmt.Sprintf("transaction %d is %s and cannot %s", id, state, op),
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func categoryOf(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}

// IsSyntaxError checks if an error is a syntax error.
func IsSyntaxError(err error) bool {
	return categoryOf(err) == CategorySyntax
}

// IsNotFound checks if an error reports a missing table, column or object.
func IsNotFound(err error) bool {
	return categoryOf(err) == CategoryNotFound
}

// IsQueryError checks if an error is a query shape error.
func IsQueryError(err error) bool {
	return categoryOf(err) == CategoryQuery
}

// IsCastError checks if an error is a cast error.
func IsCastError(err error) bool {
	return categoryOf(err) == CategoryCast
}

// IsConstraintError checks if an error is a constraint violation.
func IsConstraintError(err error) bool {
	return categoryOf(err) == CategoryConstraint
}

// IsNotSupported checks if an error is a not-supported error.
func IsNotSupported(err error) bool {
	return categoryOf(err) == CategoryNotSupported
}

// IsTransactionError checks if an error is a transaction control error.
func IsTransactionError(err error) bool {
	return categoryOf(err) == CategoryTransaction
}

// IsInternal checks if an error is an invariant violation.
func IsInternal(err error) bool {
	return categoryOf(err) == CategoryInternal
}

// GetCode returns the error code if err wraps an *Error, or 0 otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// FormatError formats an error for user display.
func FormatError(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.UserMessage()
	}
	return fmt.Sprintf("ERROR: %v", err)
}

// FormatErrorWithSQLSTATE formats an error prefixed with its SQLSTATE.
func FormatErrorWithSQLSTATE(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return fmt.Sprintf("[%s] %s", e.SQLSTATE(), e.UserMessage())
	}
	return fmt.Sprintf("[%s] ERROR: %v", SQLStateInternal, err)
}

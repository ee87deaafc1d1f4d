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

package errors

// SQLSTATE is a five character PostgreSQL error code.
type SQLSTATE string

const (
	SQLStateSyntaxError         SQLSTATE = "42601"
	SQLStateUndefinedTable      SQLSTATE = "42P01"
	SQLStateUndefinedColumn     SQLSTATE = "42703"
	SQLStateUndefinedObject     SQLSTATE = "42704"
	SQLStateDuplicateAlias      SQLSTATE = "42712"
	SQLStateAmbiguousColumn     SQLSTATE = "42702"
	SQLStateDuplicateObject     SQLSTATE = "42710"
	SQLStateDependentObjects    SQLSTATE = "2BP01"
	SQLStateUndefinedFunction   SQLSTATE = "42883"
	SQLStateCardinality         SQLSTATE = "21000"
	SQLStateInvalidText         SQLSTATE = "22P02"
	SQLStateCannotCoerce        SQLSTATE = "42846"
	SQLStateInvalidJSON         SQLSTATE = "22032"
	SQLStateDivisionByZero      SQLSTATE = "22012"
	SQLStateNumericOutOfRange   SQLSTATE = "22003"
	SQLStateUniqueViolation     SQLSTATE = "23505"
	SQLStateNotNullViolation    SQLSTATE = "23502"
	SQLStateFeatureNotSupported SQLSTATE = "0A000"
	SQLStateNoActiveTransaction SQLSTATE = "25P01"
	SQLStateActiveTransaction   SQLSTATE = "25001"
	SQLStateInternal            SQLSTATE = "XX000"
)

var sqlstateByCode = map[ErrorCode]SQLSTATE{
	ErrCodeSyntax:           SQLStateSyntaxError,
	ErrCodeUnexpectedToken:  SQLStateSyntaxError,
	ErrCodeUnclosedString:   SQLStateSyntaxError,
	ErrCodeNotFound:         SQLStateUndefinedObject,
	ErrCodeTableNotFound:    SQLStateUndefinedTable,
	ErrCodeColumnNotFound:   SQLStateUndefinedColumn,
	ErrCodeObjectNotFound:   SQLStateUndefinedObject,
	ErrCodeQuery:            SQLStateSyntaxError,
	ErrCodeDuplicateAlias:   SQLStateDuplicateAlias,
	ErrCodeAmbiguousColumn:  SQLStateAmbiguousColumn,
	ErrCodeDuplicateObject:  SQLStateDuplicateObject,
	ErrCodeValueCount:       SQLStateSyntaxError,
	ErrCodeDependentObject:  SQLStateDependentObjects,
	ErrCodeTypeMismatch:     SQLStateUndefinedFunction,
	ErrCodeCardinality:      SQLStateCardinality,
	ErrCodeCast:             SQLStateInvalidText,
	ErrCodeInvalidJSON:      SQLStateInvalidJSON,
	ErrCodeDivisionByZero:   SQLStateDivisionByZero,
	ErrCodeOverflow:         SQLStateNumericOutOfRange,
	ErrCodeCannotCoerce:     SQLStateCannotCoerce,
	ErrCodeConstraint:       SQLStateUniqueViolation,
	ErrCodeDuplicateKey:     SQLStateUniqueViolation,
	ErrCodeNullViolation:    SQLStateNotNullViolation,
	ErrCodeNotSupported:     SQLStateFeatureNotSupported,
	ErrCodeTransaction:      SQLStateNoActiveTransaction,
	ErrCodeTxNotActive:      SQLStateNoActiveTransaction,
	ErrCodeTxAlreadyActive:  SQLStateActiveTransaction,
	ErrCodeInternal:         SQLStateInternal,
	ErrCodeTerminalTxReused: SQLStateInternal,
}

// ToSQLSTATE maps an engine error code to its SQLSTATE.
// Unknown codes map to XX000.
func ToSQLSTATE(code ErrorCode) SQLSTATE {
	if s, ok := sqlstateByCode[code]; ok {
		return s
	}
	return SQLStateInternal
}

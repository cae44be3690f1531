// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/tomtom215/cartographus/internal/apperr"
)

// translateErr maps a driver-level error into an *apperr.Error so that
// callers above the Persistence Gateway never need to know DuckDB's error
// string conventions. notFoundKind names the kind returned for
// sql.ErrNoRows in this call's context (different entities surface
// different not-found kinds, e.g. CreatorNotFound vs NotFoundByID).
func translateErr(err error, notFoundKind apperr.Kind, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(notFoundKind, notFoundMsg)
	}
	if isConstraintViolation(err) {
		return apperr.Wrap(apperr.Conflict, "a conflicting record already exists", err)
	}
	return err
}

// isConstraintViolation reports whether err looks like a DuckDB unique or
// primary key constraint violation. The Go driver surfaces these as plain
// *duckdb.Error values whose message text names the violation; there is no
// typed sentinel to errors.Is against, so this mirrors the teacher's own
// string-sniffing approach (see the old isConnectionError /
// isTransactionConflict helpers this package used to carry).
func isConstraintViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "violates unique constraint"):
		return true
	case strings.Contains(msg, "violates primary key constraint"):
		return true
	case strings.Contains(msg, "duplicate key"):
		return true
	default:
		return false
	}
}

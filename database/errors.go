/*
 * Copyright 2025 tomoncle.
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

package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLError classifies a driver error independently of the database.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = [...]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "exist_index",
	ExistColumnErr:              "exist_column",
	NoTableErr:                  "no_table",
	ExistTableErr:               "exist_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
}

func (e SQLError) String() string {
	if e < 0 || int(e) >= len(sqlErrorNames) {
		return sqlErrorNames[UnknownErr]
	}
	return sqlErrorNames[e]
}

var mysqlCodes = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

var sqlStateCodes = map[string]SQLError{
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42701": ExistColumnErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
}

// IsSqlError reports whether err came from the database and classifies it.
// Typed errors of the MySQL, lib/pq and pgx drivers are matched by code;
// other drivers, SQLite included, are matched on the message text.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true, mysqlCodes[mysqlErr.Number]
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true, sqlStateCodes[pgErr.Code]
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return true, sqlStateCodes[string(pqErr.Code)]
	}
	return classifyMessage(strings.ToLower(err.Error()))
}

// Classify is IsSqlError without the membership flag.
func Classify(err error) SQLError {
	_, kind := IsSqlError(err)
	return kind
}

func classifyMessage(s string) (bool, SQLError) {
	switch {
	case containsAny(s, "sqlstate 42703", "undefined column", "no such column"):
		return true, NoColumnErr
	case containsAny(s, "sqlstate 42704", "no such index"),
		strings.Contains(s, "does not exist") && strings.Contains(s, "index"):
		return true, NoIndexErr
	case containsAny(s, "sqlstate 42p01", "undefined table", "no such table"):
		return true, NoTableErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return true, ExistIndexErr
	case strings.Contains(s, "already exists") && containsAny(s, "table", "relation"):
		return true, ExistTableErr
	case containsAny(s, "duplicate key value", "unique constraint failed", "sqlstate 23505"):
		return true, DuplicateKeyErr
	case containsAny(s, "not-null constraint", "sqlstate 23502", "not null constraint failed"):
		return true, NotNullViolationErr
	case containsAny(s, "foreign key violation", "foreign key constraint failed", "sqlstate 23503"):
		return true, ForeignKeyViolationErr
	case containsAny(s, "check constraint", "sqlstate 23514"):
		return true, CheckConstraintViolationErr
	case containsAny(s, "string data right truncation", "sqlstate 22001", "data truncated"):
		return true, DataTruncatedErr
	case containsAny(s, "datatype mismatch", "sqlstate 42804"):
		return true, InvalidTypeCastErr
	}
	return false, UnknownErr
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

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
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomoncle/provisioner/utils"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// StatementExecutor runs schema statements one by one against an open
// connection. Each statement gets its own transaction; a failing statement is
// rolled back and recorded, and execution moves on to the next one.
type StatementExecutor struct {
	db         *bun.DB
	terminator string
	logger     Logger
}

// NewStatementExecutor creates an executor bound to db.
func NewStatementExecutor(db *bun.DB) *StatementExecutor {
	return &StatementExecutor{
		db:         db,
		terminator: StatementTerminator,
		logger:     GetDBLogger(),
	}
}

// SetTerminator overrides the statement terminator used by ExecuteScript.
func (e *StatementExecutor) SetTerminator(terminator string) {
	if terminator != "" {
		e.terminator = terminator
	}
}

func (e *StatementExecutor) SetLogger(logger Logger) {
	if logger == nil {
		logger = utils.NopLogger()
	}
	e.logger = logger
}

// ExecuteScript splits content and executes every statement in order.
func (e *StatementExecutor) ExecuteScript(ctx context.Context, content string) []StatementResult {
	return e.ExecuteStatements(ctx, SplitStatements(content, e.terminator))
}

// ExecuteStatements executes statements in order and returns one result per
// statement. Once ctx is done the remaining statements are marked skipped.
func (e *StatementExecutor) ExecuteStatements(ctx context.Context, statements []string) []StatementResult {
	results := make([]StatementResult, 0, len(statements))
	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			results = append(results, StatementResult{
				Index:     i,
				Statement: stmt,
				Status:    StatementSkipped,
				Error:     err,
			})
			continue
		}

		e.logger.Info("Executing statement", "index", i, "statement", truncate(stmt, 120))
		result := e.executeStatement(ctx, i, stmt)
		if result.Succeeded() {
			e.logger.Debug("Statement committed",
				"index", i,
				"duration", result.Duration.String(),
				"rows_affected", result.RowsAffected,
			)
		} else {
			e.logger.Error("Failed to execute statement",
				"index", i,
				"kind", result.ErrorKind,
				"error", result.Error,
			)
		}
		results = append(results, result)
	}
	return results
}

func (e *StatementExecutor) executeStatement(ctx context.Context, index int, stmt string) StatementResult {
	start := time.Now()
	result := StatementResult{
		Index:     index,
		Statement: stmt,
		Status:    StatementFailed,
	}
	fail := func(err error) StatementResult {
		result.Error = err
		_, result.ErrorKind = IsSqlError(err)
		result.Duration = time.Since(start)
		return result
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fail(fmt.Errorf("failed to begin transaction: %w", err))
	}

	res, err := tx.ExecContext(ctx, stmt)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			e.logger.Warn("Failed to rollback transaction", "index", index, "error", rbErr)
		}
		return fail(err)
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit statement: %w", err))
	}

	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	result.Status = StatementSucceeded
	result.Duration = time.Since(start)
	return result
}

// ListTables returns every table in the connected database, using the
// listing query of the connection's dialect.
func (e *StatementExecutor) ListTables(ctx context.Context) ([]string, error) {
	return ListTables(ctx, e.db)
}

// ListTables returns every base table visible in db's current database.
func ListTables(ctx context.Context, db bun.IDB) ([]string, error) {
	var query string
	switch db.Dialect().Name() {
	case dialect.MySQL:
		query = "SHOW TABLES"
	case dialect.PG:
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
	case dialect.SQLite:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	default:
		return nil, fmt.Errorf("listing tables is not supported for dialect %s", db.Dialect().Name())
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

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
	"strings"
	"time"

	"github.com/tomoncle/provisioner/types"
	"github.com/uptrace/bun"
)

// AbstractDatabaseManager owns the single connection used by a provisioning run.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	Dialect() string
	SetLogger(logger Logger)
}

// ConnectionConfig describes how to reach the target database.
type ConnectionConfig struct {
	Type           string        `yaml:"type"` // mysql, postgres, sqlite
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"-"`
	DBName         string        `yaml:"dbname"`
	SSLMode        string        `yaml:"sslmode"`
	Charset        string        `yaml:"charset"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	EnableQueryLog bool          `yaml:"enable_query_log"`
	SlowQueryTime  time.Duration `yaml:"slow_query_time"`
}

// DefaultConnectionConfig returns a MySQL config with a 10 second connect
// timeout. Read and write deadlines are off so long DDL is never cut short.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:           "mysql",
		Port:           3306,
		Charset:        "utf8mb4",
		ConnectTimeout: time.Second * 10,
		SlowQueryTime:  time.Second * 2,
	}
}

// Validate reports the first missing field required to open a connection.
func (c *ConnectionConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	switch normalizeType(c.Type) {
	case "mysql", "postgres":
		if c.Host == "" || c.Username == "" || c.DBName == "" {
			return fmt.Errorf("incomplete %s configuration: host, username and dbname are required", c.Type)
		}
	case "sqlite":
		if c.DBName == "" {
			return fmt.Errorf("incomplete sqlite configuration: dbname is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s, supported types: %v", c.Type, supportedTypes)
	}
	return nil
}

// String omits the password.
func (c *ConnectionConfig) String() string {
	return fmt.Sprintf("%s://%s@%s:%d/%s", normalizeType(c.Type), c.Username, c.Host, c.Port, c.DBName)
}

var supportedTypes = []string{"mysql", "postgres", "sqlite"}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "mysql":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(t)
	}
}

// StatementStatus is the outcome of executing one schema statement.
type StatementStatus int

const (
	StatementSucceeded StatementStatus = iota
	StatementFailed
	StatementSkipped
)

var _ types.BaseEnum = StatementSucceeded

func (s StatementStatus) IsValid() bool { return s >= StatementSucceeded && s <= StatementSkipped }

func (s StatementStatus) Number() int {
	if !s.IsValid() {
		return types.IllegalValue
	}
	return int(s)
}

func (s StatementStatus) String() string { return s.Name() }

func (s StatementStatus) Name() string {
	switch s {
	case StatementSucceeded:
		return "succeeded"
	case StatementFailed:
		return "failed"
	case StatementSkipped:
		return "skipped"
	default:
		return types.IllegalName
	}
}

func (s StatementStatus) Desc() string {
	switch s {
	case StatementSucceeded:
		return "statement executed and committed"
	case StatementFailed:
		return "statement failed and was rolled back"
	case StatementSkipped:
		return "statement not attempted because the run was cancelled"
	default:
		return types.IllegalDesc
	}
}

// StatementResult records what happened to a single statement of the batch.
type StatementResult struct {
	Index        int
	Statement    string
	Status       StatementStatus
	Error        error
	ErrorKind    SQLError
	RowsAffected int64
	Duration     time.Duration
}

// Succeeded reports whether the statement was executed and committed.
func (r StatementResult) Succeeded() bool {
	return r.Status == StatementSucceeded
}

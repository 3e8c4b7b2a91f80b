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

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/provisioner"
	"github.com/tomoncle/provisioner/credentials"
	"github.com/tomoncle/provisioner/database"
	"github.com/tomoncle/provisioner/utils"
)

func setCredentialEnv(t *testing.T, dbName string) {
	t.Setenv(credentials.EnvHost, "127.0.0.1")
	t.Setenv(credentials.EnvUsername, "robot")
	t.Setenv(credentials.EnvPassword, "pw")
	t.Setenv(credentials.EnvDBName, dbName)
}

func execute(t *testing.T, args ...string) (string, error) {
	out, _, err := executeSplit(t, args...)
	return out, err
}

func executeSplit(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	t.Cleanup(func() { utils.ConfigureConsoleOutput(nil) })
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestProvisionAgainstSQLite(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	t.Chdir(dir)
	setCredentialEnv(t, ":memory:")
	t.Setenv("DB_TYPE", "sqlite")

	schemaPath := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schemaPath, []byte("CREATE TABLE a(id INTEGER);CREATE TABLE a(id INTEGER);CREATE TABLE b(id INTEGER);"), 0o644))

	out, err := execute(t, "--schema", schemaPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "3 statements, 2 succeeded, 1 failed")
	assert.Contains(t, out, "The following tables exist in the database:\na\nb\n")
}

func TestProvisionLogsGoToStderr(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	t.Chdir(dir)
	setCredentialEnv(t, ":memory:")
	t.Setenv("DB_TYPE", "sqlite")
	t.Cleanup(func() { utils.ConfigureLogLevel("info") })

	schemaPath := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(schemaPath, []byte("CREATE TABLE a(id INTEGER);"), 0o644))

	out, logs, err := executeSplit(t, "--schema", schemaPath, "--log-level", "info")
	require.NoError(t, err)
	assert.Contains(t, logs, "Executing statement")
	assert.NotContains(t, out, "Executing statement")
	assert.Contains(t, out, "1 statements, 1 succeeded, 0 failed")
}

func TestProvisionRejectsUnknownLogFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONSOLE_LOG_FORMAT", "xml")

	_, err := execute(t)
	assert.ErrorContains(t, err, "invalid log format")
}

func TestWriteOutcomeRendersReportOnLateFailure(t *testing.T) {
	color.NoColor = true
	report := &provisioner.Report{
		Stage: provisioner.StageVerifying,
		Statements: []database.StatementResult{
			{Index: 0, Statement: "CREATE TABLE a(id INT)", Status: database.StatementSucceeded},
		},
	}
	listErr := errors.New("failed to list tables: driver: bad connection")

	var out bytes.Buffer
	err := writeOutcome(&out, report, listErr)
	assert.ErrorIs(t, err, listErr)
	assert.Contains(t, out.String(), "CREATE TABLE a(id INT)")
	assert.Contains(t, out.String(), "1 statements, 1 succeeded, 0 failed")
}

func TestWriteOutcomeSkipsReportBeforeExecution(t *testing.T) {
	report := &provisioner.Report{Stage: provisioner.StageUnconnected}
	connErr := fmt.Errorf("%w: dial tcp 127.0.0.1:1: connection refused", database.ErrConnect)

	var out bytes.Buffer
	err := writeOutcome(&out, report, connErr)
	assert.ErrorIs(t, err, database.ErrConnect)
	assert.Equal(t, "ERROR: Unexpected error: Could not connect to the database instance.\n", out.String())
}

func TestProvisionConnectionFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	setCredentialEnv(t, "moneyrobot")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_PORT", "1")
	t.Setenv("DB_CONNECT_TIMEOUT", "2")

	out, err := execute(t, "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConnect)
	assert.Contains(t, out, "Could not connect")
	assert.NotContains(t, out, "statements,")
}

func TestProvisionRejectsArguments(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}

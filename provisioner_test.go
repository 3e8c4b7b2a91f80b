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

package provisioner

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/provisioner/credentials"
	"github.com/tomoncle/provisioner/database"
	"github.com/tomoncle/provisioner/utils"
	"github.com/uptrace/bun"
)

type fakeSecrets struct {
	value string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretString(context.Context, string) (string, error) {
	f.calls++
	return f.value, f.err
}

// failingManager refuses to connect and counts any attempt to use the handle.
type failingManager struct {
	connectErr error
	dbCalls    int
}

func (m *failingManager) Connect(context.Context) error {
	return m.connectErr
}

func (m *failingManager) Disconnect() error {
	return nil
}

func (m *failingManager) Ping(context.Context) error {
	return m.connectErr
}

func (m *failingManager) GetDB() *bun.DB {
	m.dbCalls++
	return nil
}

func (m *failingManager) GetSQLDB() *sql.DB {
	m.dbCalls++
	return nil
}

func (m *failingManager) Dialect() string {
	return "mysql"
}

func (m *failingManager) SetLogger(utils.Logger) {
}

func sqliteEnv() map[string]string {
	return map[string]string{
		credentials.EnvHost:     "localhost",
		credentials.EnvUsername: "robot",
		credentials.EnvPassword: "pw",
		credentials.EnvDBName:   ":memory:",
	}
}

func newResolver(secrets credentials.SecretSource, env map[string]string) *credentials.Resolver {
	r := credentials.NewResolver(secrets, "moneyrobot-dev-secret").WithEnv(func(k string) string { return env[k] })
	r.SetLogger(utils.NopLogger())
	return r
}

func sqliteConfig(t *testing.T, script string) *Config {
	cfg := DefaultConfig()
	cfg.Database.Type = "sqlite"
	if script != "" {
		path := filepath.Join(t.TempDir(), "create_tables.sql")
		require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
		cfg.Schema.Path = path
	}
	return cfg
}

func TestRunAppliesEmbeddedSchema(t *testing.T) {
	secrets := &fakeSecrets{}
	cfg := sqliteConfig(t, "")
	p := New(cfg, newResolver(secrets, sqliteEnv()), WithLogger(utils.NopLogger()))

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageDone, report.Stage)
	assert.Equal(t, credentials.SourceEnvironment, report.Source)
	assert.Equal(t, 0, secrets.calls)
	assert.Len(t, report.Statements, 5)
	assert.Equal(t, []string{"accounts", "budgets", "categories", "transactions", "users"}, report.Tables)
}

func TestRunIsolatesStatementFailures(t *testing.T) {
	cfg := sqliteConfig(t, "CREATE TABLE a(id INTEGER;CREATE TABLE b(id INTEGER);\n\n")
	p := New(cfg, newResolver(nil, sqliteEnv()), WithLogger(utils.NopLogger()))

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Statements, 2)
	assert.Equal(t, database.StatementFailed, report.Statements[0].Status)
	assert.Equal(t, database.StatementSucceeded, report.Statements[1].Status)
	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, []string{"b"}, report.Tables)
}

func TestRunUsesSecretStoreWhenEnvironmentIncomplete(t *testing.T) {
	secrets := &fakeSecrets{value: `{"host":"localhost","username":"robot","password":"pw","dbname":":memory:"}`}
	env := sqliteEnv()
	delete(env, credentials.EnvPassword)
	cfg := sqliteConfig(t, "CREATE TABLE a(id INTEGER);")

	report, err := New(cfg, newResolver(secrets, env), WithLogger(utils.NopLogger())).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, secrets.calls)
	assert.Equal(t, credentials.SourceSecretStore, report.Source)
	assert.Equal(t, []string{"a"}, report.Tables)
}

func TestRunStopsOnCredentialError(t *testing.T) {
	built := 0
	secrets := &fakeSecrets{err: errors.New("secret not found")}
	p := New(DefaultConfig(), newResolver(secrets, nil),
		WithLogger(utils.NopLogger()),
		WithManagerFactory(func(cfg *database.ConnectionConfig) database.AbstractDatabaseManager {
			built++
			return &failingManager{}
		}),
	)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrCredentials)
	assert.Equal(t, 0, built)
	assert.Equal(t, StageUnconnected, report.Stage)
}

func TestRunStopsOnConnectionTimeout(t *testing.T) {
	manager := &failingManager{connectErr: errors.Join(database.ErrConnect, context.DeadlineExceeded)}
	env := sqliteEnv()
	env[credentials.EnvDBName] = "moneyrobot"
	p := New(DefaultConfig(), newResolver(nil, env),
		WithLogger(utils.NopLogger()),
		WithManagerFactory(func(cfg *database.ConnectionConfig) database.AbstractDatabaseManager {
			assert.Equal(t, "localhost", cfg.Host)
			assert.Equal(t, "moneyrobot", cfg.DBName)
			return manager
		}),
	)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConnect)
	assert.Equal(t, StageUnconnected, report.Stage)
	assert.Empty(t, report.Statements)
	assert.Equal(t, 0, manager.dbCalls)
}

func TestApplyCredentialsKeepsDefaultPort(t *testing.T) {
	cfg := database.DefaultConnectionConfig()
	applyCredentials(cfg, credentials.Credentials{Host: "h", Username: "u", Password: "p", DBName: "d"})
	assert.Equal(t, 3306, cfg.Port)

	applyCredentials(cfg, credentials.Credentials{Host: "h", Username: "u", Password: "p", DBName: "d", Port: 3307})
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "p", cfg.Password)
}

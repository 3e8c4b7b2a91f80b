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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "moneyrobot-dev-secret", cfg.Secret.SecretID)
	assert.Equal(t, "us-west-2", cfg.Secret.Region)
	assert.Equal(t, ";", cfg.Schema.Terminator)
	assert.Empty(t, cfg.Schema.Path)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provisioner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  type: postgres
  port: 5433
  connect_timeout: 5s
secret:
  secret_id: moneyrobot-prod-secret
  cache_item_ttl: 10m
schema:
  path: /opt/schema.sql
log:
  level: debug
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "moneyrobot-prod-secret", cfg.Secret.SecretID)
	assert.Equal(t, 10*time.Minute, cfg.Secret.CacheItemTTL)
	assert.Equal(t, "us-west-2", cfg.Secret.Region)
	assert.Equal(t, "/opt/schema.sql", cfg.Schema.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provisioner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("secret:\n  secret_id: from-file\n"), 0o644))
	t.Setenv("SECRET_ID", "from-env")
	t.Setenv("SCHEMA_FILE", "/tmp/other.sql")
	t.Setenv("DB_CONNECT_TIMEOUT", "20")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Secret.SecretID)
	assert.Equal(t, "/tmp/other.sql", cfg.Schema.Path)
	assert.Equal(t, 20*time.Second, cfg.Database.ConnectTimeout)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [not, a, map]"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

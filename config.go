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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tomoncle/provisioner/credentials"
	"github.com/tomoncle/provisioner/database"
	"github.com/tomoncle/provisioner/utils"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no config path is given and the file exists.
const DefaultConfigFile = "provisioner.yaml"

// Config aggregates connection, secret store, schema and logging settings.
type Config struct {
	Database database.ConnectionConfig `yaml:"database"`
	Secret   credentials.SecretConfig  `yaml:"secret"`
	Schema   SchemaConfig              `yaml:"schema"`
	Log      LogConfig                 `yaml:"log"`
}

// SchemaConfig selects the statements to apply. An empty Path means the
// embedded create_tables.sql.
type SchemaConfig struct {
	Path       string `yaml:"path"`
	Terminator string `yaml:"terminator"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns MySQL with a 10s connect timeout, the development
// secret in us-west-2 and the embedded schema.
func DefaultConfig() *Config {
	return &Config{
		Database: *database.DefaultConnectionConfig(),
		Secret:   credentials.DefaultSecretConfig(),
		Schema:   SchemaConfig{Terminator: database.StatementTerminator},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig layers defaults, the YAML file at path and environment
// overrides. With an empty path DefaultConfigFile is used if present.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	database.OverrideFromEnv(&c.Database)
	c.Secret.SecretID = utils.EnvDefaultString("SECRET_ID", c.Secret.SecretID)
	c.Secret.Region = utils.EnvDefaultString("SECRET_REGION", c.Secret.Region)
	c.Secret.Endpoint = utils.EnvDefaultString("SECRET_ENDPOINT", c.Secret.Endpoint)
	c.Schema.Path = utils.EnvDefaultString("SCHEMA_FILE", c.Schema.Path)
	c.Log.Level = utils.EnvDefaultString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = utils.EnvDefaultString("CONSOLE_LOG_FORMAT", c.Log.Format)
}

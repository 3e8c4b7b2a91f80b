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
	"fmt"
	"os"
	"strconv"

	"github.com/tomoncle/provisioner/utils"
)

// ManagerFactory builds the manager for a connection config.
type ManagerFactory func(cfg *ConnectionConfig) AbstractDatabaseManager

// BaseDatabaseFactory creates database managers from connection configs.
type BaseDatabaseFactory struct {
	logger Logger
	newFn  ManagerFactory
}

// NewDatabaseFactory returns a factory producing Bun-backed managers.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetDBLogger(),
		newFn:  NewDatabaseManager,
	}
}

// WithManagerFactory replaces the constructor used by CreateFromConfig.
func (f *BaseDatabaseFactory) WithManagerFactory(fn ManagerFactory) *BaseDatabaseFactory {
	if fn != nil {
		f.newFn = fn
	}
	return f
}

// CreateFromConfig checks that the database type is supported and
// returns a manager for cfg with the factory logger attached.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	supported := false
	for _, t := range supportedTypes {
		if normalizeType(cfg.Type) == t {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}

	manager := f.newFn(cfg)
	manager.SetLogger(f.logger)
	return manager, nil
}

// SetLogger sets the logger handed to created managers.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
}

// OverrideFromEnv applies connection tuning from environment variables.
// Credentials are resolved separately and are never read here.
func OverrideFromEnv(cfg *ConnectionConfig) {
	cfg.Type = utils.EnvDefaultString("DB_TYPE", cfg.Type)
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)
	cfg.ConnectTimeout = utils.EnvDefaultDuration("DB_CONNECT_TIMEOUT", cfg.ConnectTimeout)
	cfg.ReadTimeout = utils.EnvDefaultDuration("DB_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = utils.EnvDefaultDuration("DB_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
}

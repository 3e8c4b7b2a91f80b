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

// Package provisioner applies the bundled schema to a database: it resolves
// credentials, opens one connection, executes every statement of the schema
// in its own transaction and reports the tables that exist afterwards.
package provisioner

import (
	"context"
	"fmt"

	"github.com/tomoncle/provisioner/credentials"
	"github.com/tomoncle/provisioner/database"
	"github.com/tomoncle/provisioner/schema"
	"github.com/tomoncle/provisioner/utils"
)

type Provisioner struct {
	cfg      *Config
	resolver *credentials.Resolver
	factory  *database.BaseDatabaseFactory
	logger   utils.Logger
}

type Option func(*Provisioner)

// WithManagerFactory replaces how the connection manager is built.
func WithManagerFactory(fn database.ManagerFactory) Option {
	return func(p *Provisioner) {
		p.factory.WithManagerFactory(fn)
	}
}

func WithLogger(logger utils.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New returns a Provisioner that resolves credentials with resolver.
func New(cfg *Config, resolver *credentials.Resolver, opts ...Option) *Provisioner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Provisioner{
		cfg:      cfg,
		resolver: resolver,
		factory:  database.NewDatabaseFactory(),
		logger:   utils.NewFieldLogger("PROVISIONER"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.factory.SetLogger(p.logger)
	return p
}

// Run executes the whole procedure. Credential and connection failures end
// the run before any statement is executed and are returned as errors.
// Statement failures never abort the run; they are recorded in the report.
func (p *Provisioner) Run(ctx context.Context) (*Report, error) {
	report := &Report{Stage: StageUnconnected}

	creds, source, err := p.resolver.Resolve(ctx)
	report.Source = source
	if err != nil {
		return report, err
	}

	connCfg := p.cfg.Database
	applyCredentials(&connCfg, creds)
	report.Host, report.DBName = connCfg.Host, connCfg.DBName

	p.logger.Info(fmt.Sprintf("Connecting to %s on %s", connCfg.DBName, connCfg.Host), "type", connCfg.Type, "source", source)
	manager, err := p.factory.CreateFromConfig(&connCfg)
	if err != nil {
		return report, fmt.Errorf("%w: %w", database.ErrConnect, err)
	}
	if err := manager.Connect(ctx); err != nil {
		p.logger.Error("Unexpected error: could not connect to database instance", "error", err)
		return report, err
	}
	defer func() {
		_ = manager.Disconnect()
	}()
	report.Stage = StageConnected
	p.logger.Info("Connection to database instance succeeded")

	content, err := schema.Load(p.cfg.Schema.Path)
	if err != nil {
		return report, err
	}

	executor := database.NewStatementExecutor(manager.GetDB())
	executor.SetTerminator(p.cfg.Schema.Terminator)
	executor.SetLogger(p.logger)

	report.Stage = StageExecuting
	report.Statements = executor.ExecuteScript(ctx, content)

	report.Stage = StageVerifying
	tables, err := executor.ListTables(ctx)
	if err != nil {
		return report, err
	}
	report.Tables = tables
	report.Stage = StageDone

	if failed := report.Failed(); len(failed) > 0 {
		p.logger.Warn("Schema applied with failures", "failed", len(failed), "total", len(report.Statements))
	} else {
		p.logger.Info("Schema applied", "statements", len(report.Statements), "tables", len(tables))
	}
	return report, nil
}

func applyCredentials(cfg *database.ConnectionConfig, creds credentials.Credentials) {
	cfg.Host = creds.Host
	cfg.Username = creds.Username
	cfg.Password = creds.Password
	cfg.DBName = creds.DBName
	if creds.Port > 0 {
		cfg.Port = creds.Port
	}
}

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

// Command provision applies the moneyrobot schema to its database.
//
// Credentials come from RDS_HOST, USERNAME, PASSWORD and DB_NAME when all four
// are set, otherwise from the configured AWS Secrets Manager secret.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tomoncle/provisioner"
	"github.com/tomoncle/provisioner/credentials"
	"github.com/tomoncle/provisioner/database"
	"github.com/tomoncle/provisioner/utils"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "provision: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

type options struct {
	configPath string
	schemaPath string
	logLevel   string
	queryLog   bool
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "provision",
		Short:         "Create the moneyrobot tables in the configured database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default ./"+provisioner.DefaultConfigFile+" if present)")
	flags.StringVar(&opts.schemaPath, "schema", "", "SQL file to apply instead of the bundled create_tables.sql")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.queryLog, "query-log", false, "print every query sent to the database")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	cfg, err := provisioner.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.schemaPath != "" {
		cfg.Schema.Path = opts.schemaPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.queryLog {
		cfg.Database.EnableQueryLog = true
	}
	utils.ConfigureConsoleOutput(cmd.ErrOrStderr())
	if err := utils.ConfigureConsoleLogFormat(cfg.Log.Format); err != nil {
		return err
	}
	utils.ConfigureLogLevel(cfg.Log.Level)

	secrets := credentials.NewSecretCache(cfg.Secret)
	resolver := credentials.NewResolver(secrets, cfg.Secret.SecretID)

	report, err := provisioner.New(cfg, resolver).Run(cmd.Context())
	return writeOutcome(cmd.OutOrStdout(), report, err)
}

// writeOutcome prints the report of a run. Statement results are printed
// whenever execution started, even if a later step failed.
func writeOutcome(w io.Writer, report *provisioner.Report, runErr error) error {
	if errors.Is(runErr, database.ErrConnect) {
		_, _ = fmt.Fprintln(w, "ERROR: Unexpected error: Could not connect to the database instance.")
	}
	if report == nil || (runErr != nil && report.Stage < provisioner.StageExecuting) {
		return runErr
	}
	if err := report.Render(w); err != nil && runErr == nil {
		return err
	}
	return runErr
}

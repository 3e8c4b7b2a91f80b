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
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/tomoncle/provisioner/credentials"
	"github.com/tomoncle/provisioner/database"
)

// Stage is how far a run progressed.
type Stage int

const (
	StageUnconnected Stage = iota
	StageConnected
	StageExecuting
	StageVerifying
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageUnconnected:
		return "unconnected"
	case StageConnected:
		return "connected"
	case StageExecuting:
		return "executing"
	case StageVerifying:
		return "verifying"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Report is the outcome of one provisioning run.
type Report struct {
	Stage      Stage
	Source     credentials.Source
	Host       string
	DBName     string
	Statements []database.StatementResult
	Tables     []string
}

// Failed returns the statements that did not commit.
func (r *Report) Failed() []database.StatementResult {
	var failed []database.StatementResult
	for _, s := range r.Statements {
		if !s.Succeeded() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Render writes a per-statement summary and the table list to w.
func (r *Report) Render(w io.Writer) error {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	for _, s := range r.Statements {
		padded := fmt.Sprintf("%-9s", s.Status)
		status := ok(padded)
		if !s.Succeeded() {
			status = bad(padded)
		}
		if _, err := fmt.Fprintf(w, "[%d] %s %s\n", s.Index+1, status, firstLine(s.Statement)); err != nil {
			return err
		}
		if s.Error != nil {
			if _, err := fmt.Fprintf(w, "    %s (%s)\n", bad(s.Error.Error()), s.ErrorKind); err != nil {
				return err
			}
		}
	}

	failed := len(r.Failed())
	if _, err := fmt.Fprintf(w, "%d statements, %d succeeded, %d failed\n", len(r.Statements), len(r.Statements)-failed, failed); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "The following tables exist in the database:"); err != nil {
		return err
	}
	for _, t := range r.Tables {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i, c := range stmt {
		if c == '\n' {
			return stmt[:i] + " ..."
		}
	}
	return stmt
}

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

// Package schema bundles the table definitions applied by the provisioner.
package schema

import (
	_ "embed"
	"fmt"
	"os"
)

// CreateTables holds the DDL for every moneyrobot table, one statement per
// ";"-terminated segment.
//
//go:embed create_tables.sql
var CreateTables string

// Load returns the contents of path, or CreateTables when path is empty.
func Load(path string) (string, error) {
	if path == "" {
		return CreateTables, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file: %w", err)
	}
	return string(content), nil
}

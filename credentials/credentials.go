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

package credentials

import (
	"fmt"
	"strings"

	"github.com/tomoncle/provisioner/types"
)

// Credentials hold what is needed to log into the target database. They live
// in memory for a single run and are never written anywhere.
type Credentials struct {
	Host     string
	Username string
	Password string
	DBName   string
	// Port is optional; zero means the dialect default.
	Port int
}

// Validate fails when any of host, username, password or dbname is empty.
func (c Credentials) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.DBName == "" {
		missing = append(missing, "dbname")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete credentials, missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s/%s", c.Username, c.Host, c.DBName)
}

// Source tells where a set of credentials came from.
type Source int

const (
	SourceEnvironment Source = iota
	SourceSecretStore
)

var _ types.BaseEnum = SourceEnvironment

func (s Source) IsValid() bool { return s == SourceEnvironment || s == SourceSecretStore }

func (s Source) Number() int {
	if !s.IsValid() {
		return types.IllegalValue
	}
	return int(s)
}

func (s Source) String() string { return s.Name() }

func (s Source) Name() string {
	switch s {
	case SourceEnvironment:
		return "environment"
	case SourceSecretStore:
		return "secret_store"
	default:
		return types.IllegalName
	}
}

func (s Source) Desc() string {
	switch s {
	case SourceEnvironment:
		return "RDS_HOST, USERNAME, PASSWORD and DB_NAME environment variables"
	case SourceSecretStore:
		return "AWS Secrets Manager secret"
	default:
		return types.IllegalDesc
	}
}

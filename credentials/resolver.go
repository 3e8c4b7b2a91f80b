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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tomoncle/provisioner/utils"
)

// ErrCredentials marks every failure to produce complete credentials.
var ErrCredentials = errors.New("unable to resolve database credentials")

// Environment variables consulted before the secret store.
const (
	EnvHost     = "RDS_HOST"
	EnvUsername = "USERNAME"
	EnvPassword = "PASSWORD"
	EnvDBName   = "DB_NAME"
)

// SecretSource returns the string value of a named secret.
type SecretSource interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// Resolver picks credentials from the environment when all four variables
// are set, and from the secret store otherwise.
type Resolver struct {
	getenv   func(string) string
	secrets  SecretSource
	secretID string
	logger   utils.Logger
}

// NewResolver returns a resolver reading os.Getenv and falling back to
// secretID in secrets.
func NewResolver(secrets SecretSource, secretID string) *Resolver {
	return &Resolver{
		getenv:   os.Getenv,
		secrets:  secrets,
		secretID: secretID,
		logger:   utils.NewFieldLogger("CREDENTIALS"),
	}
}

// WithEnv replaces the environment lookup.
func (r *Resolver) WithEnv(getenv func(string) string) *Resolver {
	if getenv != nil {
		r.getenv = getenv
	}
	return r
}

func (r *Resolver) SetLogger(logger utils.Logger) {
	if logger == nil {
		logger = utils.NopLogger()
	}
	r.logger = logger
}

// Resolve returns complete credentials and where they came from.
func (r *Resolver) Resolve(ctx context.Context) (Credentials, Source, error) {
	if creds, ok := FromEnv(r.getenv); ok {
		r.logger.Info("Using environment variables for database connection info")
		return creds, SourceEnvironment, nil
	}

	if r.secrets == nil {
		return Credentials{}, SourceSecretStore, fmt.Errorf("%w: environment incomplete and no secret store configured", ErrCredentials)
	}
	if r.secretID == "" {
		return Credentials{}, SourceSecretStore, fmt.Errorf("%w: environment incomplete and no secret id configured", ErrCredentials)
	}

	r.logger.Info("Fetching database connection info from secret store", "secret_id", r.secretID)
	raw, err := r.secrets.GetSecretString(ctx, r.secretID)
	if err != nil {
		return Credentials{}, SourceSecretStore, fmt.Errorf("%w: fetch secret %s: %w", ErrCredentials, r.secretID, err)
	}

	creds, err := ParseSecret(raw)
	if err != nil {
		return Credentials{}, SourceSecretStore, fmt.Errorf("%w: secret %s: %w", ErrCredentials, r.secretID, err)
	}
	return creds, SourceSecretStore, nil
}

// FromEnv reads the four connection variables. ok is false unless every one
// of them is set to a non-empty value.
func FromEnv(getenv func(string) string) (Credentials, bool) {
	creds := Credentials{
		Host:     getenv(EnvHost),
		Username: getenv(EnvUsername),
		Password: getenv(EnvPassword),
		DBName:   getenv(EnvDBName),
	}
	if creds.Validate() != nil {
		return Credentials{}, false
	}
	return creds, true
}

type secretRecord struct {
	Host     string      `json:"host"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	DBName   string      `json:"dbname"`
	Port     json.Number `json:"port"`
}

// ParseSecret decodes a JSON secret with host, username, password, dbname and
// an optional port.
func ParseSecret(raw string) (Credentials, error) {
	var rec secretRecord
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	if err := dec.Decode(&rec); err != nil {
		return Credentials{}, fmt.Errorf("malformed secret: %w", err)
	}

	creds := Credentials{
		Host:     rec.Host,
		Username: rec.Username,
		Password: rec.Password,
		DBName:   rec.DBName,
	}
	if rec.Port != "" {
		port, err := rec.Port.Int64()
		if err != nil || port <= 0 || port > 65535 {
			return Credentials{}, fmt.Errorf("malformed secret: invalid port %q", rec.Port.String())
		}
		creds.Port = int(port)
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

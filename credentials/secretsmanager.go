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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
)

// SecretConfig is the parameter set of the secret cache.
type SecretConfig struct {
	SecretID     string        `yaml:"secret_id"`
	Region       string        `yaml:"region"`
	Endpoint     string        `yaml:"endpoint"`
	CacheItemTTL time.Duration `yaml:"cache_item_ttl"`
	MaxCacheSize int           `yaml:"max_cache_size"`
	VersionStage string        `yaml:"version_stage"`
}

// DefaultSecretConfig points at the development secret in us-west-2.
func DefaultSecretConfig() SecretConfig {
	return SecretConfig{
		SecretID:     "moneyrobot-dev-secret",
		Region:       "us-west-2",
		CacheItemTTL: time.Hour,
		MaxCacheSize: 1024,
		VersionStage: "AWSCURRENT",
	}
}

// CachedSecretSource reads secrets from AWS Secrets Manager through a
// client-side cache. The AWS client is built on first use, so a run whose
// credentials come from the environment never loads AWS configuration.
type CachedSecretSource struct {
	cfg     SecretConfig
	once    sync.Once
	cache   *secretcache.Cache
	initErr error
}

var _ SecretSource = (*CachedSecretSource)(nil)

// NewSecretCache returns a cache configured by cfg. Zero fields fall back to
// DefaultSecretConfig.
func NewSecretCache(cfg SecretConfig) *CachedSecretSource {
	def := DefaultSecretConfig()
	if cfg.Region == "" {
		cfg.Region = def.Region
	}
	if cfg.CacheItemTTL <= 0 {
		cfg.CacheItemTTL = def.CacheItemTTL
	}
	if cfg.MaxCacheSize <= 0 {
		cfg.MaxCacheSize = def.MaxCacheSize
	}
	if cfg.VersionStage == "" {
		cfg.VersionStage = def.VersionStage
	}
	return &CachedSecretSource{cfg: cfg}
}

func (s *CachedSecretSource) init(ctx context.Context) error {
	s.once.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.cfg.Region))
		if err != nil {
			s.initErr = fmt.Errorf("load aws config: %w", err)
			return
		}
		client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
			if s.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			}
		})
		s.cache, s.initErr = secretcache.New(func(c *secretcache.Cache) {
			c.Client = client
			c.CacheConfig.CacheItemTTL = s.cfg.CacheItemTTL.Nanoseconds()
			c.CacheConfig.MaxCacheSize = s.cfg.MaxCacheSize
			c.CacheConfig.VersionStage = s.cfg.VersionStage
		})
	})
	return s.initErr
}

// GetSecretString returns the cached value of secretID, fetching it from
// Secrets Manager when missing or expired.
func (s *CachedSecretSource) GetSecretString(ctx context.Context, secretID string) (string, error) {
	if err := s.init(ctx); err != nil {
		return "", err
	}
	return s.cache.GetSecretStringWithContext(ctx, secretID)
}

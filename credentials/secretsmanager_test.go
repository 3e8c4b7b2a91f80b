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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSecretCacheAppliesDefaults(t *testing.T) {
	s := NewSecretCache(SecretConfig{SecretID: "custom"})

	assert.Equal(t, "custom", s.cfg.SecretID)
	assert.Equal(t, "us-west-2", s.cfg.Region)
	assert.Equal(t, time.Hour, s.cfg.CacheItemTTL)
	assert.Equal(t, 1024, s.cfg.MaxCacheSize)
	assert.Equal(t, "AWSCURRENT", s.cfg.VersionStage)
	assert.Nil(t, s.cache, "aws client must not be built before first use")
}

func TestNewSecretCacheKeepsExplicitValues(t *testing.T) {
	s := NewSecretCache(SecretConfig{Region: "eu-west-1", CacheItemTTL: time.Minute, MaxCacheSize: 8, VersionStage: "AWSPREVIOUS"})

	assert.Equal(t, "eu-west-1", s.cfg.Region)
	assert.Equal(t, time.Minute, s.cfg.CacheItemTTL)
	assert.Equal(t, 8, s.cfg.MaxCacheSize)
	assert.Equal(t, "AWSPREVIOUS", s.cfg.VersionStage)
}

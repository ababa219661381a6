// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig Vault 配置
type VaultConfig struct {
	Address    string `yaml:"address"`     // Vault server address (e.g., http://vault:8200)
	Token      string `yaml:"token"`       // Vault token
	PathPrefix string `yaml:"path_prefix"` // Secret path prefix (e.g., "secret")
}

type vaultStore struct {
	client     *vault.Client
	pathPrefix string
	mu         sync.RWMutex
	transient  map[string]string // 最近 Set 的值缓存，避免读放大
}

// NewVaultStore 创建 Vault secret store
func NewVaultStore(config VaultConfig) (Store, error) {
	if config.Address == "" {
		config.Address = "http://localhost:8200"
	}

	cfg := vault.DefaultConfig()
	cfg.Address = config.Address

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Token != "" {
		client.SetToken(config.Token)
	}

	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	prefix := "secret"
	if config.PathPrefix != "" {
		prefix = config.PathPrefix
	}

	return &vaultStore{
		client:     client,
		pathPrefix: prefix,
		transient:  make(map[string]string),
	}, nil
}

func (v *vaultStore) Get(ctx context.Context, key string) (string, error) {
	v.mu.RLock()
	if val, ok := v.transient[key]; ok {
		v.mu.RUnlock()
		return val, nil
	}
	v.mu.RUnlock()

	secret, err := v.client.Logical().Read(v.buildPath(key))
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil {
		return "", fmt.Errorf("secret not found: %s", key)
	}

	if data, ok := secret.Data["value"].(string); ok {
		return data, nil
	}
	for _, val := range secret.Data {
		if str, ok := val.(string); ok {
			return str, nil
		}
	}
	return "", fmt.Errorf("secret value not found: %s", key)
}

func (v *vaultStore) Set(ctx context.Context, key string, value string) error {
	data := map[string]interface{}{
		"value": value,
	}
	if _, err := v.client.Logical().Write(v.buildPath(key), data); err != nil {
		return fmt.Errorf("failed to write secret to vault: %w", err)
	}

	v.mu.Lock()
	v.transient[key] = value
	v.mu.Unlock()
	return nil
}

func (v *vaultStore) Delete(ctx context.Context, key string) error {
	if _, err := v.client.Logical().Delete(v.buildPath(key)); err != nil {
		return fmt.Errorf("failed to delete secret from vault: %w", err)
	}

	v.mu.Lock()
	delete(v.transient, key)
	v.mu.Unlock()
	return nil
}

func (v *vaultStore) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath := v.pathPrefix
	if prefix != "" {
		searchPath = fmt.Sprintf("%s/metadata/%s", v.pathPrefix, prefix)
	}

	secret, err := v.client.Logical().List(searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets from vault: %w", err)
	}
	if secret == nil {
		return nil, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	var result []string
	for _, k := range keys {
		if str, ok := k.(string); ok {
			fullKey := str
			if !strings.HasPrefix(str, prefix) {
				fullKey = fmt.Sprintf("%s/%s", prefix, str)
			}
			result = append(result, fullKey)
		}
	}
	return result, nil
}

func (v *vaultStore) buildPath(key string) string {
	return fmt.Sprintf("%s/%s", v.pathPrefix, key)
}

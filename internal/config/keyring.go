/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService  = "gmscenario"
	keyringPassword = "library_password"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (k *osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (k *osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// LibraryPassword returns the stored library password, or "" when none is set.
func LibraryPassword() string {
	pw, err := tokenStore.Get(keyringService, keyringPassword)
	if err != nil {
		return ""
	}
	return pw
}

// SetLibraryPassword stores pw in the keyring. An empty pw removes it.
func SetLibraryPassword(pw string) error {
	if pw == "" {
		err := tokenStore.Delete(keyringService, keyringPassword)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return tokenStore.Set(keyringService, keyringPassword, pw)
}

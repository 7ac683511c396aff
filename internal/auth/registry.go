// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"sync"

	"github.com/samber/oops"
)

// Default attribute names used by DefaultOptions.
const (
	DefaultModel             = "User"
	DefaultLoginAttribute    = "email"
	DefaultPasswordAttribute = "password_hash"
	DefaultSaltAttribute     = "password_salt"
)

// AttributeKind selects one of the per-type field mappings.
type AttributeKind int

// Attribute kinds.
const (
	AttributeLogin AttributeKind = iota
	AttributeHash
	AttributeSalt
)

func (k AttributeKind) String() string {
	switch k {
	case AttributeLogin:
		return "login"
	case AttributeHash:
		return "hash"
	case AttributeSalt:
		return "salt"
	default:
		return "unknown"
	}
}

// AccountTypeConfig maps one account type to the fields holding its login,
// salted password hash and salt.
type AccountTypeConfig struct {
	TypeName              string
	LoginAttribute        string
	PasswordHashAttribute string
	SaltAttribute         string
}

// Options is the list-shaped configuration surface. The lists are parallel:
// entry i of each list belongs to Models[i].
type Options struct {
	Models     []string
	Attributes []string
	Passwords  []string
	Salts      []string
}

// DefaultOptions returns a single "User" type keyed by email.
func DefaultOptions() Options {
	return Options{
		Models:     []string{DefaultModel},
		Attributes: []string{DefaultLoginAttribute},
		Passwords:  []string{DefaultPasswordAttribute},
		Salts:      []string{DefaultSaltAttribute},
	}
}

// Registry is the ordered set of authenticatable account types.
//
// Types are registered once at startup; after that a Registry is safe for
// concurrent readers.
type Registry struct {
	mu         sync.RWMutex
	models     []string
	attributes []string
	passwords  []string
	salts      []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewRegistryFromOptions builds a Registry from parallel option lists. Lists
// shorter than Models are padded with empty values, which then fall back to
// index 0's value at lookup time. Entries beyond len(Models) are ignored.
func NewRegistryFromOptions(opts Options) (*Registry, error) {
	if len(opts.Models) == 0 {
		return nil, oops.Code(CodeNotRegistered).Wrap(ErrNotRegistered)
	}

	r := NewRegistry()
	for i, model := range opts.Models {
		err := r.Register(AccountTypeConfig{
			TypeName:              model,
			LoginAttribute:        at(opts.Attributes, i),
			PasswordHashAttribute: at(opts.Passwords, i),
			SaltAttribute:         at(opts.Salts, i),
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// Register appends an account type. Registering a name that already exists
// replaces that entry in place.
func (r *Registry) Register(cfg AccountTypeConfig) error {
	if cfg.TypeName == "" {
		return oops.Code("AUTH_INVALID_TYPE").Errorf("account type name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, name := range r.models {
		if name == cfg.TypeName {
			r.attributes[i] = cfg.LoginAttribute
			r.passwords[i] = cfg.PasswordHashAttribute
			r.salts[i] = cfg.SaltAttribute
			return nil
		}
	}

	r.models = append(r.models, cfg.TypeName)
	r.attributes = append(r.attributes, cfg.LoginAttribute)
	r.passwords = append(r.passwords, cfg.PasswordHashAttribute)
	r.salts = append(r.salts, cfg.SaltAttribute)
	return nil
}

// Lookup returns the index of typeName.
func (r *Registry) Lookup(typeName string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, name := range r.models {
		if name == typeName {
			return i, nil
		}
	}
	return -1, oops.Code(CodeNotRegistered).
		With("type", typeName).
		With("registered", len(r.models)).
		Wrap(ErrNotRegistered)
}

// AttributeFor returns the field name of the given kind for the type at index.
// An empty or missing value falls back to index 0's value; if that is empty
// too the result is empty.
func (r *Registry) AttributeFor(kind AttributeKind, index int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []string
	switch kind {
	case AttributeLogin:
		list = r.attributes
	case AttributeHash:
		list = r.passwords
	case AttributeSalt:
		list = r.salts
	default:
		return ""
	}

	if index >= 0 && index < len(list) && list[index] != "" {
		return list[index]
	}
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

// DefaultType returns the first registered type name.
func (r *Registry) DefaultType() (string, error) {
	return r.TypeName(0)
}

// TypeName returns the type name registered at index.
func (r *Registry) TypeName(index int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.models) {
		return "", oops.Code(CodeNotRegistered).
			With("index", index).
			With("registered", len(r.models)).
			Wrap(ErrNotRegistered)
	}
	return r.models[index], nil
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Types returns the registered configurations in order, with fallbacks
// resolved.
func (r *Registry) Types() []AccountTypeConfig {
	n := r.Len()
	out := make([]AccountTypeConfig, 0, n)
	for i := 0; i < n; i++ {
		name, err := r.TypeName(i)
		if err != nil {
			break
		}
		out = append(out, AccountTypeConfig{
			TypeName:              name,
			LoginAttribute:        r.AttributeFor(AttributeLogin, i),
			PasswordHashAttribute: r.AttributeFor(AttributeHash, i),
			SaltAttribute:         r.AttributeFor(AttributeSalt, i),
		})
	}
	return out
}

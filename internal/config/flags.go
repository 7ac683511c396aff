// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package config

import (
	"github.com/spf13/pflag"
)

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"models":          "models",
	"attributes":      "attributes",
	"passwords":       "passwords",
	"salts":           "salts",
	"model":           "model",
	"attribute":       "attribute",
	"password-field":  "password",
	"salt-field":      "salt",
	"hasher-time":     "hasher.time",
	"hasher-memory":   "hasher.memory",
	"hasher-threads":  "hasher.threads",
	"hasher-key-len":  "hasher.key_len",
	"hasher-salt-len": "hasher.salt_len",
	"database-url":    "database.url",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"metrics-addr":    "metrics.addr",
}

// RegisterFlags adds the configuration flags to fs. Only flags that are
// set on the command line override the file and the defaults, so the flag
// defaults here are informational.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSlice("models", nil, "account type names, first is the default")
	fs.StringSlice("attributes", nil, "login attribute per account type")
	fs.StringSlice("passwords", nil, "password hash attribute per account type")
	fs.StringSlice("salts", nil, "password salt attribute per account type")
	fs.String("model", "", "single account type (overrides --models)")
	fs.String("attribute", "", "single login attribute (overrides --attributes)")
	fs.String("password-field", "", "single password hash attribute (overrides --passwords)")
	fs.String("salt-field", "", "single salt attribute (overrides --salts)")
	fs.Uint32("hasher-time", 0, "argon2id iterations")
	fs.Uint32("hasher-memory", 0, "argon2id memory in KiB")
	fs.Uint8("hasher-threads", 0, "argon2id parallelism")
	fs.Uint32("hasher-key-len", 0, "derived key length in bytes")
	fs.Int("hasher-salt-len", 0, "generated salt length in bytes")
	fs.String("database-url", "", "PostgreSQL URL (default $"+EnvDatabaseURL+")")
	fs.String("log-format", "", "log format: json or text")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("metrics-addr", "", "listen address for the metrics server")
}

// Package config loads keystrike settings.
//
// Settings are resolved in layers, each overriding the one below:
//
//	┌──────────────────────────────┐
//	│  4. Command line flags       │  ← applied by the caller
//	├──────────────────────────────┤
//	│  3. KEYSTRIKE_* environment  │
//	├──────────────────────────────┤
//	│  2. config.toml              │  ← <user config dir>/keystrike/config.toml
//	├──────────────────────────────┤
//	│  1. Built-in defaults        │
//	└──────────────────────────────┘
//
// A missing config file is not an error. Validate runs after every layer
// has been applied.
package config

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config loads the configuration file of the parkweb program.
// The Config struct contains the settings which are fixed during each
// execution, such as the database connection information, the HTTP
// server and logging settings, and the use cases tuning knobs.
// Settings which may be changed by administrators at runtime (e.g.,
// hourly rates) are kept in the database. The configuration file only
// provides their initial values for a fresh database.
//
// Config fields are defined with primitive types or types which are
// defined locally, so the configuration file format stays independent
// of the models and use cases layers.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/adapter/db/postgres/migration"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"gopkg.in/yaml.v3"
)

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases.
type Config struct {
	Database  Database  // PostgreSQL database connection settings
	Gin       Gin       // Gin-Gonic instantiation settings
	Logging   Logging   // Structured logging settings
	Telemetry Telemetry // Tracing and metrics settings
	Usecases  Usecases  // Configuration settings for supported use cases

	// Initial settings are stored in the database by the db init-dev
	// and db init-prod commands. Thereafter, the database copy is used.
	Initial Initial `yaml:"initial-settings"`
}

// Load reads the path configuration file and parses it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return c, nil
}

// Parse unmarshals the data byte slice as a YAML document and loads
// a Config instance. Unknown items are ignored and missing items take
// their default values. Thereafter, the loaded Config is validated and
// normalized in order to ensure that provided settings are acceptable.
func Parse(data []byte) (*Config, error) {
	n := &yaml.Node{}
	if err := yaml.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if l := len(n.Content); l != 1 {
		return nil, fmt.Errorf(
			"found %d children nodes, instead of 1 mapping child", l,
		)
	}
	c := &Config{}
	if err := n.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding yaml node: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It also replaces the
// missing values with their defaults.
func (c *Config) ValidateAndNormalize() error {
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	c.Gin.normalize()
	if err := c.Logging.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating logging settings: %w", err)
	}
	if err := c.Telemetry.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating telemetry settings: %w", err)
	}
	if err := c.Usecases.Parking.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating parking settings: %w", err)
	}
	if err := c.Initial.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating initial settings: %w", err)
	}
	return nil
}

// ConnectionPool creates a database connection pool for the r role.
// The transactions of the created pool wait for row locks at most as
// long as the configured parking lock-timeout.
func (c *Config) ConnectionPool(
	ctx context.Context, r repo.Role,
) (repo.ClosablePool, error) {
	opts := []postgres.PoolOption{postgres.WithTracing()}
	if lt := c.Usecases.Parking.LockTimeout; lt != nil {
		opts = append(opts, postgres.WithLockTimeout(lt.Std()))
	}
	p, err := c.Database.ConnectionPool(ctx, r, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting as %q: %w", r, err)
	}
	return p, nil
}

// NewSchemaRepo instantiates a fresh Schema repository.
func (c *Config) NewSchemaRepo() repo.Schema {
	return c.Database.NewSchemaRepo()
}

// SchemaInitializer returns a repo.SchemaInitializer which creates
// the parking tables within the tx transaction.
func (c *Config) SchemaInitializer(tx repo.Tx) repo.SchemaInitializer {
	return migration.NewInitializer(tx)
}

// SchemaName returns the name of the database schema which holds the
// parking tables.
func (c *Config) SchemaName() string {
	return postgres.SchemaName
}

// InitialSettings returns the configuration store contents which are
// seeded into a freshly initialized database.
func (c *Config) InitialSettings() *model.Settings {
	return c.Initial.settings
}

// RenewPasswords generates and sets new passwords for roles.
// See Database.RenewPasswords for details.
func (c *Config) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	return c.Database.RenewPasswords(ctx, change, roles...)
}

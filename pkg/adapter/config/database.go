// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/adapter/db/postgres/schemarp"
	"github.com/momeni/parking/pkg/adapter/hash/scram"
	"github.com/momeni/parking/pkg/core/log"
	"github.com/momeni/parking/pkg/core/repo"
	scrami "github.com/momeni/parking/pkg/core/scram"
)

// Database contains the database related configuration settings.
type Database struct {
	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name, like parking
	PassDir string `yaml:"pass-dir"` // path of the passwords dir

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. Parallel test cases may use distinct suffixes in
	// order to create non-colliding roles in one database cluster.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`

	// AuthMethod specifies how role passwords should be hashed before
	// they are stored in the database. Only scram-sha-1 and
	// scram-sha-256 are supported and scram-sha-256 is the default.
	AuthMethod string `yaml:"auth-method,omitempty"`

	hasher scrami.Hasher `yaml:"-"`
}

// ConnectionPool creates a database connection pool for the r role.
// Initially, the .pgpass file in the d.PassDir folder is checked
// which should conform with the pgpass format with lines like this:
//
//	host:port:dbname:role:password
//
// If no connection could be established, passwords might have been
// updated during an incomplete database initialization, so the
// .pgpass.new file is checked too. If it works, it is moved over the
// .pgpass file, so it may be overwritten safely afterwards.
//
// The d.RoleSuffix will be appended to the r role name too.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role, opts ...postgres.PoolOption,
) (*postgres.Pool, error) {
	path := filepath.Join(d.PassDir, ".pgpass")
	u, err := d.ConnectionURL(r, path)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", path, err)
	}
	p, err := postgres.NewPool(ctx, u, opts...)
	if err == nil {
		return p, nil
	}
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	log.Warn(
		ctx, "trying the new pass-file",
		log.Err("err", err),
		slog.String("path", path),
		slog.String("new_path", newPath),
	)
	u, err = d.ConnectionURL(r, newPath)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", newPath, err)
	}
	p, err = postgres.NewPool(ctx, u, opts...)
	if err != nil {
		return nil, fmt.Errorf("can use neither pass-file: %w", err)
	}
	if err = os.Rename(newPath, path); err != nil {
		p.Close()
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	return p, nil
}

// ConnectionURL returns a postgresql URL for connecting to the d
// database as the r role, reading its password from the path file.
// Empty and #-commented lines of the pass-file are ignored.
func (d Database) ConnectionURL(
	r repo.Role, path string,
) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", fmt.Errorf("no matching password line for %q", r)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// NewSchemaRepo instantiates a Schema repository which suffixes the
// role names with d.RoleSuffix and hashes their passwords as asked by
// d.AuthMethod. The ValidateAndNormalize must be called beforehand.
func (d Database) NewSchemaRepo() repo.Schema {
	return schemarp.New(d.RoleSuffix, d.hasher)
}

// RenewPasswords generates a random password for each one of roles,
// writes them into the .pgpass.new file of d.PassDir, and passes them
// to the change function, so they may be updated in the database.
// The returned finalizer moves .pgpass.new over the .pgpass file and
// should be called after the change transaction is committed.
//
// The d.RoleSuffix will be appended to the roles names in the file.
// The change function is expected to suffix them in the same way.
func (d Database) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	passwords := make([]string, len(roles))
	b := make([]byte, 16) // 128 bits
	enc := base64.RawStdEncoding
	p := make([]byte, enc.EncodedLen(len(b)))
	prfx := fmt.Sprintf("%s:%d:%s", d.Host, d.Port, d.Name)
	lines := make([]string, len(roles))
	for i, r := range roles {
		if _, err = rand.Read(b); err != nil {
			return nil, fmt.Errorf("rand.Read for i=%d: %w", i, err)
		}
		enc.Encode(p, b)
		passwords[i] = string(p)
		lines[i] = fmt.Sprintf(
			"%s:%s:%s\n", prfx, r+d.RoleSuffix, passwords[i],
		)
	}
	orgPath := filepath.Join(d.PassDir, ".pgpass")
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	err = os.WriteFile(newPath, []byte(strings.Join(lines, "")), 0o600)
	if err != nil {
		return nil, fmt.Errorf("writing %q file: %w", newPath, err)
	}
	if err = change(ctx, roles, passwords); err != nil {
		return nil, fmt.Errorf("passwords change callback: %w", err)
	}
	return func() error {
		return os.Rename(newPath, orgPath)
	}, nil
}

// ValidateAndNormalize checks the mandatory fields and instantiates
// the password hasher based on the d.AuthMethod.
func (d *Database) ValidateAndNormalize() error {
	switch {
	case d.Host == "":
		return fmt.Errorf("database host is empty")
	case d.Port <= 0 || d.Port > 65535:
		return fmt.Errorf("database port %d is invalid", d.Port)
	case d.Name == "":
		return fmt.Errorf("database name is empty")
	}
	h, err := scram.ForMethod(d.AuthMethod)
	if err != nil {
		return fmt.Errorf("database auth-method: %w", err)
	}
	if d.AuthMethod == "" {
		d.AuthMethod = "scram-sha-256"
	}
	d.hasher = h
	return nil
}

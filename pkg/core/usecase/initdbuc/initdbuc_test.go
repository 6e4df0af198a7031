// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package initdbuc_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/momeni/parking/internal/test/dbcontainer"
	"github.com/momeni/parking/internal/test/schema"
	"github.com/momeni/parking/pkg/adapter/config"
	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/adapter/db/postgres/settingsrp"
	"github.com/momeni/parking/pkg/adapter/hash/scram"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/momeni/parking/pkg/core/usecase/initdbuc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type InitDBTestSuite struct {
	Ctx  context.Context
	Pool *postgres.Pool
	Port int

	dbDir  string
	hasher *scram.Mechanism
}

func TestInitDBTestSuite(t *testing.T) {
	ctx := context.Background()
	pg, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	u, err := url.Parse(pg.ConnectionString())
	if ok := assert.NoError(t, err, "parsing DB container URL"); !ok {
		return
	}
	p, err := strconv.Atoi(u.Port())
	if ok := assert.NoError(t, err, "parsing DB container port"); !ok {
		return
	}
	dbDir, err := os.MkdirTemp("", "initdbuc-db")
	if ok := assert.NoError(t, err, "creating temp db dir"); !ok {
		return
	}
	defer func() {
		err := os.RemoveAll(dbDir)
		assert.NoError(t, err, "removing temp db dir")
	}()
	idts := &InitDBTestSuite{
		Ctx:    ctx,
		Pool:   pool,
		Port:   p,
		dbDir:  dbDir,
		hasher: scram.SHA256(),
	}
	t.Run("dev", func(t *testing.T) { idts.TestInit(t, true) })
	t.Run("prod", func(t *testing.T) { idts.TestInit(t, false) })
}

func (idts *InitDBTestSuite) TestInit(t *testing.T, dev bool) {
	r := require.New(t)
	name := "prod"
	if dev {
		name = "dev"
	}
	c := idts.createEmptyDB(t, name)
	uc := initdbuc.New(c)
	initDB := uc.InitProd
	if dev {
		initDB = uc.InitDev
	}
	r.NoError(initDB(idts.Ctx), "initializing %s database", name)
	idts.verify(t, c, dev)

	// repeating the initialization renews the passwords again and
	// drops all slots which are added in between
	r.NoError(initDB(idts.Ctx), "repeating %s initialization", name)
	idts.verify(t, c, dev)
	_, err := os.Stat(filepath.Join(c.Database.PassDir, ".pgpass.new"))
	r.True(os.IsNotExist(err), "new pass-file must be renamed")
}

func (idts *InitDBTestSuite) verify(
	t *testing.T, c *config.Config, dev bool,
) {
	r := require.New(t)
	p, err := c.ConnectionPool(idts.Ctx, repo.NormalRole)
	r.NoError(err, "connecting as the normal role")
	defer p.Close()
	err = p.Conn(idts.Ctx, func(ctx context.Context, cn repo.Conn) error {
		v := schema.New(cn)
		v.VerifySchema(ctx, t)
		if dev {
			v.VerifyDevData(ctx, t)
		} else {
			v.VerifyProdData(ctx, t)
		}
		s, err := settingsrp.New().Conn(cn).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetching settings: %w", err)
		}
		assert.Equal(t, 15, s.Billing.RoundingMinutes)
		assert.Equal(t, 50, s.SlotCapacityLimit)
		rate, err := s.Tariffs.HourlyRate(model.VehicleTypeTruck)
		assert.NoError(t, err)
		assert.Equal(t, "12.50", rate.StringFixed(2))
		return nil
	})
	r.NoError(err, "verifying database contents")
}

// createEmptyDB creates the name database and a superuser admin role
// with a random password which is stored in a .pgpass file, returning
// a configuration which points to them.
func (idts *InitDBTestSuite) createEmptyDB(
	t *testing.T, name string,
) *config.Config {
	r := require.New(t)
	roleSuffix := repo.Role("_" + name)
	u := repo.AdminRole + roleSuffix
	p := randPass(t)
	err := idts.Pool.Conn(
		idts.Ctx, func(ctx context.Context, c repo.Conn) error {
			// The database and role creation DDL statements do not
			// support parameterized queries, nevertheless, the `name`
			// and `u` variables are trusted.
			if _, err := c.Exec(
				ctx, "CREATE DATABASE "+name,
			); err != nil {
				return fmt.Errorf("creating %q database: %w", name, err)
			}
			hp, err := idts.hasher.Hash(p, "", 15000)
			if err != nil {
				return fmt.Errorf(
					"computing scram hash of password: %w", err,
				)
			}
			if _, err := c.Exec(
				ctx,
				fmt.Sprintf(
					`CREATE ROLE %s
WITH SUPERUSER LOGIN PASSWORD '%s';
GRANT ALL PRIVILEGES ON DATABASE %s TO %[1]s`,
					u, hp, name,
				),
			); err != nil {
				return fmt.Errorf("creating %q role: %w", u, err)
			}
			return nil
		},
	)
	r.NoError(err, "main connection error")
	d := filepath.Join(idts.dbDir, name)
	r.NoError(os.Mkdir(d, 0o700), "creating %q dir", d)
	line := fmt.Sprintf(
		"127.0.0.1:%d:%s:%s:%s\n", idts.Port, name, u, p,
	)
	pgpass := filepath.Join(d, ".pgpass")
	r.NoError(os.WriteFile(pgpass, []byte(line), 0o600), "writing %q", pgpass)

	c := &config.Config{
		Database: config.Database{
			Host:       "127.0.0.1",
			Port:       idts.Port,
			Name:       name,
			PassDir:    d,
			RoleSuffix: roleSuffix,
		},
		Initial: config.Initial{
			RoundingMinutes:   15,
			MinimumHours:      decimal.NewFromInt(1),
			SlotCapacityLimit: 50,
			HourlyRates: map[string]decimal.Decimal{
				"motorcycle": decimal.RequireFromString("3"),
				"car":        decimal.RequireFromString("7.25"),
				"truck":      decimal.RequireFromString("12.5"),
			},
		},
	}
	r.NoError(c.ValidateAndNormalize(), "validating configs")
	return c
}

func randPass(t *testing.T) string {
	b := make([]byte, 8)
	_, err := rand.Read(b)
	require.NoError(t, err, "generating a random password")
	return fmt.Sprintf("%x", b)
}

func TestMissingInitialSettings(t *testing.T) {
	c := &config.Config{
		Database: config.Database{
			Host: "127.0.0.1", Port: 5432, Name: "parking",
		},
	}
	require.NoError(t, c.ValidateAndNormalize())
	err := initdbuc.New(c).InitProd(context.Background())
	assert.ErrorIs(t, err, model.ErrMissingSetting)
}

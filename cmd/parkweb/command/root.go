// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the parking
// web project. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db"
// sub-command can be used for the database initialization actions.
// The init-dev and init-prod actions initialize the database with the
// development or production suitable data records.
//
//	./parkweb [-c /path/of/main/config.yaml]           # start web server
//	./parkweb db init-dev [-c /path/of/main/config.yaml]
//	./parkweb db init-prod [-c /path/of/main/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/momeni/parking/pkg/adapter/config"
	"github.com/momeni/parking/pkg/adapter/restful/gin"
	"github.com/momeni/parking/pkg/adapter/restful/gin/routes"
	"github.com/momeni/parking/pkg/adapter/telemetry"
	"github.com/momeni/parking/pkg/core/log"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "parkweb",
	Short: "A parking facility management web service",
	Long: `A parking facility management web service which assigns
slots to the entering vehicles, releases them on exit while computing
the parking fees, and keeps a ledger of all vehicle movements.
Slots, tariffs, and the billing policy are managed through the same
REST API while the configuration store is kept in PostgreSQL.
The service exports its request traces to an OTLP collector (if it is
configured) and exposes the Prometheus metrics of the parking
operations.`,
	RunE: startWebServer,
}

func startWebServer(_ *cobra.Command, _ []string) (err error) {
	ctx := context.Background()
	c, err := loadConfig()
	if err != nil {
		return err
	}
	tp, err := c.Telemetry.NewTracerProvider(ctx)
	if err != nil {
		return fmt.Errorf("creating tracer provider: %w", err)
	}
	defer func() {
		err2 := tp.Shutdown(ctx)
		if err2 != nil {
			err = errors.Join(err, fmt.Errorf("tracer shutdown: %w", err2))
		}
	}()
	p, err := c.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	var e *gin.Engine = c.Gin.NewEngine(
		slog.Default(), *c.Telemetry.ServiceName,
	)
	if err = routes.Register(e, p, c, telemetry.NewMetrics()); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	log.Info(ctx, "starting web server", slog.String("addr", *c.Gin.Address))
	if err = e.Run(*c.Gin.Address); err != nil {
		return fmt.Errorf("running Gin engine: %w", err)
	}
	return nil
}

// loadConfig loads the cfgPath configuration file and installs its
// logger as the default slog logger.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	slog.SetDefault(c.Logging.NewLogger(os.Stderr))
	return c, nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. The exit code may
// be a boolean (zero for success and non-zero for failure) or may be
// chosen based on the error condition (if it is desired to report
// several error conditions in the CLI of this program).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}

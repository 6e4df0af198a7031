// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine and its middlewares, so the
// other packages may create an engine without depending on how its
// requests and panics are logged.
package gin

import (
	"log/slog"

	ginslogger "github.com/FabienMht/ginslog/logger"
	ginslogrecovery "github.com/FabienMht/ginslog/recovery"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

// New creates an engine with the given middlewares. The request
// context values (e.g., the current span) are visible through the
// *gin.Context which is passed to the use cases.
func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.ContextWithFallback = true
	e.Use(middlewares...)
	return e
}

// Logger logs each request with the l structured logger.
func Logger(l *slog.Logger) HandlerFunc {
	return ginslogger.New(l)
}

// Recovery recovers from panics, logs them with l, and responds with
// the 500 status code.
func Recovery(l *slog.Logger) HandlerFunc {
	return ginslogrecovery.New(l)
}

// Tracing starts a server span for each request, continuing the trace
// which may be propagated by the caller headers.
func Tracing(service string) HandlerFunc {
	return otelgin.Middleware(service)
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telemetry_test

import (
	"context"
	"testing"

	"github.com/momeni/parking/pkg/adapter/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestTracerProviderWithoutExporter(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, "parkweb-test", "", 1)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, tp.Shutdown(ctx))
	}()

	_, span := otel.Tracer("test").Start(ctx, "op")
	defer span.End()
	sc := span.SpanContext()
	assert.True(t, sc.IsValid(), "spans must carry trace ids")
	assert.True(t, sc.IsSampled())
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scram_test

import (
	"strings"
	"testing"

	"github.com/momeni/parking/pkg/adapter/hash/scram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForMethod(t *testing.T) {
	m, err := scram.ForMethod("")
	require.NoError(t, err)
	h, err := m.Hash("secret", "", 4096)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "SCRAM-SHA-256$4096:"), h)

	m, err = scram.ForMethod("scram-sha-1")
	require.NoError(t, err)
	h, err = m.Hash("secret", "", 4096)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "SCRAM-SHA-1$4096:"), h)

	_, err = scram.ForMethod("md5")
	assert.ErrorIs(t, err, scram.ErrUnsupportedMethod)
}

func TestHashIsStableForAFixedSalt(t *testing.T) {
	m := scram.SHA256()
	salt := "c2FsdHNhbHRzYWx0c2FsdA=="
	h1, err := m.Hash("secret", salt, 4096)
	require.NoError(t, err)
	h2, err := m.Hash("secret", salt, 4096)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	parts := strings.Split(h1, "$")
	require.Len(t, parts, 3)
	assert.Equal(t, "4096:"+salt, parts[1])

	_, err = m.Hash("", salt, 4096)
	assert.Error(t, err)
	_, err = m.Hash("secret", salt, 100)
	assert.Error(t, err)
}

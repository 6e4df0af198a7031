// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	cases := []struct {
		err    error
		kind   cerr.Kind
		status int
	}{
		{cerr.Validation(base), cerr.KindValidation, http.StatusBadRequest},
		{cerr.Conflict(base), cerr.KindConflict, http.StatusConflict},
		{cerr.NotFound(base), cerr.KindNotFound, http.StatusNotFound},
		{
			cerr.Transient(base), cerr.KindTransient,
			http.StatusServiceUnavailable,
		},
		{
			cerr.Configuration(base), cerr.KindConfiguration,
			http.StatusInternalServerError,
		},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("registering: %w", c.err)
		assert.Equal(t, c.kind, cerr.KindOf(wrapped), c.kind.String())
		assert.ErrorIs(t, wrapped, base)
		var e *cerr.Error
		if assert.ErrorAs(t, wrapped, &e) {
			assert.Equal(t, c.status, e.HTTPStatusCode)
		}
	}
	assert.Equal(t, cerr.KindUnknown, cerr.KindOf(base))
	assert.False(t, cerr.Classified(base))
	assert.True(t, cerr.IsTransient(cerr.Transient(base)))
	assert.False(t, cerr.IsTransient(cerr.Conflict(base)))
}

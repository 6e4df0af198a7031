// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"

	"github.com/momeni/parking/pkg/core/repo"
	"gorm.io/gorm"
)

// Queryer is a type constraint which is satisfied by *Conn and *Tx.
// Repository packages implement each query once as a generic function
// of a Queryer and call it from both of their connection and
// transaction queryers.
type Queryer interface {
	*Conn | *Tx
	repo.Queryer
	GORM(ctx context.Context) *gorm.DB
}

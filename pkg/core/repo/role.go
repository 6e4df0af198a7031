// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Role is a string specifying a database connection role. Each role
// has a set of granted privileges which indicates which operations
// may be performed after using it for connecting to a database.
type Role string

// These constants specify the expected database roles. The AdminRole
// must exist beforehand and it must have super user privileges, so it
// can be used to create the NormalRole (if it is not already created)
// while a production database is being initialized.
const (
	// AdminRole is an administrator (super user) role which may be used
	// for creation of the schema and other roles.
	AdminRole Role = "admin"

	// NormalRole is a normal (unprivilged) role which is used for
	// all entry, exit, and management operations.
	NormalRole Role = "parkweb"
)

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram exports the Hasher interface for the Salted Challenge
// Response Authentication Mechanism (SCRAM). The implementation lives
// in the adapters layer (see pkg/adapter/hash/scram).
//
// The database initialization use case creates the normal database
// role and renews the passwords of roles. It only needs to compute
// the standard SCRAM hash string of a password, so it may be sent in
// an ALTER ROLE statement instead of the plaintext password. The
// client and server conversations of the SCRAM protocol are handled
// by the PostgreSQL server and its driver, so they are not modeled
// here.
package scram

// Hasher computes SCRAM hash strings for a fixed underlying hash
// function, e.g., SHA-256.
type Hasher interface {
	// Hash computes a hash string in the following format, so it
	// can be stored by a DBMS and used later for authentication.
	//
	//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
	//
	// The pass argument must be non-empty and is normalized by the
	// SASLprep profile (RFC 4013). The salt must be the base64 encoding
	// of the salt bytes, or empty in order to use a random salt.
	// The iters must be at least 4096, while the RFC 7677 recommends
	// 15000 or more.
	Hash(pass, salt string, iters int) (string, error)
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Tx represents a database transaction which is not safe for
// concurrent use. Row locks which are taken by the Tx queryers of the
// repositories (e.g., SlotsTxQueryer.LockFirstFree) are held until the
// transaction ends, so a use case may read, decide, and write while
// other transactions wait for the same rows.
type Tx interface {
	Queryer

	// IsTx method prevents a non-Tx object (such as a Conn) to
	// mistakenly implement the Tx interface.
	IsTx()
}

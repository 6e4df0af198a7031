// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import "github.com/spf13/cobra"

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
For fresh installation in a development or production environment,
the init-dev or init-prod may be used.`,
}

const credsRenewalMessage = `
The passwords of the admin and normal roles are renewed too. New
passwords are written to the .pgpass.new file in the pass-dir folder
before they are set in the database and that file is moved over the
.pgpass file after a successful commit. Therefore, an interrupted
initialization may be repeated safely.`

func init() {
	rootCmd.AddCommand(dbCmd)
}

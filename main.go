// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	cmd "github.com/scenec/scenec/cmd/scenec"
)

func main() {
	os.Exit(cmd.Execute())
}

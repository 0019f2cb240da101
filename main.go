// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pubcheck/pubcheck/cmd/pubcheck"

func main() {
	cmd.Execute()
}

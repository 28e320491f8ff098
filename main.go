// SPDX-License-Identifier: MIT
package main

import "github.com/okapos/branchsync/cmd/branchsync"

// execute is overridable in tests.
var execute = branchsync.Execute

func main() {
	execute()
}

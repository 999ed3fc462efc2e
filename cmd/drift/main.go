// Command drift reconciles a points ledger against balance snapshots from
// the command line.
package main

import "github.com/warp/ledger-drift/cmd/drift/cmd"

func main() {
	cmd.Execute()
}

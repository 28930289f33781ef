// Command presale operates the Velirion token presale on a local ledger.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rustsol114/velirion-presale/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "presale:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

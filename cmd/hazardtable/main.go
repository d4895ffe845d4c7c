// main is the entry point of the hazardtable CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/huangsam/hazardtable/cmd"
	"github.com/huangsam/hazardtable/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()

	if perr := cmd.StopProfiling(); perr != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.YellowString("Warn"), perr)
	}
	iocache.CloseStores()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// Command peaks finds the months in which a term was most mentioned in the
// Arquivo.pt web archive, as a web application or a terminal report.
package main

import (
	"errors"
	"os"

	"github.com/thesavant42/arquivo-peaks/internal/ui"
)

// errReported marks failures that were already shown to the user
var errReported = errors.New("reported")

func main() {
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			ui.PrintError(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

// Command nextron builds and runs Next.js + Electron desktop applications.
package main

import (
	"os"

	"github.com/Iron-Ham/nextron/internal/cmd"
	"github.com/Iron-Ham/nextron/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.ReportError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

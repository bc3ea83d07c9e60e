// Kernel generates native iOS and Android projects and configures them
// through plugins.
//
// Usage:
//
//	kernel <command> [flags]
//
// See 'kernel --help' for available commands.
package main

import (
	"os"

	"github.com/go-drift/kernel/cmd/kernel/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

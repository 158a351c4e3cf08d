// Package cli implements the kpvault demo command line: open a primary
// kdbx database, build a cache envelope from it, and read a cache envelope
// back without the password's key transform.
package cli

import (
	"fmt"
	"os"

	"github.com/kpvault/kpvault/internal/kplog"
	"github.com/spf13/cobra"
)

// Version is set by main.go.
var Version = "dev"

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "kpvault",
	Short: "Read-only KeePass kdbx v3 database and cache-envelope tool",
	Long: `kpvault opens KeePass 2.x kdbx v3 password databases and can project
them into an encrypted cache envelope for cheap re-reads that skip the
password's full key transform.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugLogging {
			kplog.EnableDebugLogging()
		}
	},
}

// Execute runs the CLI application.
func Execute(version string) {
	Version = version
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging to stderr")
}

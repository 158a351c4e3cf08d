package cli

import (
	"fmt"
	"os"

	"github.com/kpvault/kpvault"
	"github.com/kpvault/kpvault/internal/dbmodel"
	"github.com/spf13/cobra"
)

var (
	openInput    string
	openPassword string
	openKeyfile  string
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a primary kdbx database and list its groups and entries",
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVarP(&openInput, "input", "i", "", "Input .kdbx file")
	openCmd.Flags().StringVarP(&openPassword, "password", "p", "", "Database password")
	openCmd.Flags().StringVarP(&openKeyfile, "keyfile", "k", "", "Key file path")
	_ = openCmd.MarkFlagRequired("input")
}

func runOpen(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(openInput)
	if err != nil {
		return fmt.Errorf("reading %s: %w", openInput, err)
	}

	cred, password, err := resolveCredential(openPassword, openKeyfile)
	if err != nil {
		return err
	}
	warnWeakPassword(password)

	db, err := kpvault.OpenPrimary(data, cred)
	if err != nil {
		return err
	}

	fmt.Printf("Database: %s\n", db.Name)
	printGroup(db.Root, 0)
	return nil
}

func printGroup(g *dbmodel.Group, depth int) {
	if g == nil {
		return
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s (%d entries)\n", indent, g.Name, len(g.Entries))
	for _, e := range g.Entries {
		title := e.Strings["Title"].Text
		if title == "" {
			title = e.UUID
		}
		fmt.Printf("%s  - %s\n", indent, title)
	}
	for _, child := range g.Groups {
		printGroup(child, depth+1)
	}
}

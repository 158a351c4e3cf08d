package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/kpvault/kpvault"
	"github.com/spf13/cobra"
)

var (
	cacheReadInput    string
	cacheReadPassword string
)

var cacheReadCmd = &cobra.Command{
	Use:   "cache-read",
	Short: "Read a cache envelope without the primary database's full key transform",
	RunE:  runCacheRead,
}

func init() {
	rootCmd.AddCommand(cacheReadCmd)
	cacheReadCmd.Flags().StringVarP(&cacheReadInput, "input", "i", "", "Input cache envelope file")
	cacheReadCmd.Flags().StringVarP(&cacheReadPassword, "password", "p", "", "Cache envelope password")
	_ = cacheReadCmd.MarkFlagRequired("input")
}

func runCacheRead(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(cacheReadInput)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cacheReadInput, err)
	}

	password := cacheReadPassword
	if password == "" {
		p, err := ReadPasswordInteractive(false)
		if err != nil {
			return err
		}
		password = p
	}
	cred := kpvault.NewPasswordCredential(password)

	env, db, err := kpvault.CacheDeserialize(bytes.NewReader(data), cred)
	if err != nil {
		return err
	}

	fmt.Printf("Source db digest: %s\n", env.DBFile)
	if env.KeyFile != nil {
		fmt.Printf("Source keyfile digest: %s\n", *env.KeyFile)
	}
	if db != nil {
		fmt.Printf("Database: %s\n", db.Name)
		printGroup(db.Root, 0)
	}
	return nil
}

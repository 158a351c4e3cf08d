package cli

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/kpvault/kpvault"
	"github.com/spf13/cobra"
)

var (
	cacheBuildInput    string
	cacheBuildOutput   string
	cacheBuildPassword string
	cacheBuildKeyfile  string
)

var cacheBuildCmd = &cobra.Command{
	Use:   "cache-build",
	Short: "Open a primary kdbx database and write a cache envelope for it",
	RunE:  runCacheBuild,
}

func init() {
	rootCmd.AddCommand(cacheBuildCmd)
	cacheBuildCmd.Flags().StringVarP(&cacheBuildInput, "input", "i", "", "Input .kdbx file")
	cacheBuildCmd.Flags().StringVarP(&cacheBuildOutput, "output", "o", "", "Output cache envelope file")
	cacheBuildCmd.Flags().StringVarP(&cacheBuildPassword, "password", "p", "", "Database password")
	cacheBuildCmd.Flags().StringVarP(&cacheBuildKeyfile, "keyfile", "k", "", "Key file path")
	_ = cacheBuildCmd.MarkFlagRequired("input")
	_ = cacheBuildCmd.MarkFlagRequired("output")
}

func runCacheBuild(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(cacheBuildInput)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cacheBuildInput, err)
	}

	cred, password, err := resolveCredential(cacheBuildPassword, cacheBuildKeyfile)
	if err != nil {
		return err
	}
	warnWeakPassword(password)

	db, err := kpvault.OpenPrimary(data, cred)
	if err != nil {
		return err
	}

	dbDigest := sha1.Sum(data)
	dbDigestHex := hex.EncodeToString(dbDigest[:])

	var keyfileDigestHex *string
	if cacheBuildKeyfile != "" {
		kfData, err := os.ReadFile(cacheBuildKeyfile)
		if err != nil {
			return err
		}
		sum := sha1.Sum(kfData)
		s := hex.EncodeToString(sum[:])
		keyfileDigestHex = &s
	}

	cachePassword := kpvault.CachePasswordFromPassword(password)
	cacheCred := kpvault.NewPasswordCredential(cachePassword)

	blob, err := kpvault.CacheSerialize(db, cacheCred, nil, dbDigestHex, keyfileDigestHex)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cacheBuildOutput, blob, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cacheBuildOutput, err)
	}
	fmt.Printf("Cache envelope written: %s\n", cacheBuildOutput)
	return nil
}

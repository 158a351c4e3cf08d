package cli

import (
	"os"

	"github.com/kpvault/kpvault"
)

// resolveCredential builds a Credential from CLI flags, prompting for a
// password interactively when none was given on the command line. It
// returns the resolved password alongside the credential so callers can
// run strength checks against it.
func resolveCredential(passwordFlag, keyfileFlag string) (kpvault.Credential, string, error) {
	var keyfileBytes []byte
	if keyfileFlag != "" {
		data, err := os.ReadFile(keyfileFlag)
		if err != nil {
			return kpvault.Credential{}, "", err
		}
		keyfileBytes = data
	}

	password := passwordFlag
	if password == "" && keyfileBytes == nil {
		p, err := ReadPasswordInteractive(false)
		if err != nil {
			return kpvault.Credential{}, "", err
		}
		password = p
	} else if password == "" {
		p, err := ReadPasswordInteractive(true)
		if err != nil {
			return kpvault.Credential{}, "", err
		}
		password = p
	}

	switch {
	case keyfileBytes != nil && password != "":
		return kpvault.NewCompositeCredential(password, keyfileBytes), password, nil
	case keyfileBytes != nil:
		return kpvault.NewFileCredential(keyfileBytes), password, nil
	default:
		return kpvault.NewPasswordCredential(password), password, nil
	}
}

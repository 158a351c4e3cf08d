package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Picocrypt/zxcvbn-go"
	"golang.org/x/term"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordEmpty    = errors.New("password cannot be empty")
)

// isTerminal returns true if stdin is a terminal (not piped/redirected).
func isTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// readPasswordSecure reads a password from stdin without echo. Falls back
// to a buffered read if stdin is not a terminal.
func readPasswordSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !isTerminal() {
		reader := bufio.NewReader(os.Stdin)
		pw, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		pw = strings.TrimSuffix(pw, "\n")
		pw = strings.TrimSuffix(pw, "\r")
		return pw, nil
	}

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// ReadPasswordInteractive prompts for the database password. allowEmpty
// permits an empty response, for key-file-only credentials.
func ReadPasswordInteractive(allowEmpty bool) (string, error) {
	password, err := readPasswordSecure("Password: ")
	if err != nil {
		return "", err
	}
	if password == "" && !allowEmpty {
		return "", ErrPasswordEmpty
	}
	return password, nil
}

// warnWeakPassword prints a strength warning for the primary database
// password entered to open a database or build a cache envelope from it;
// it never blocks.
func warnWeakPassword(password string) {
	if password == "" {
		return
	}
	result := zxcvbn.PasswordStrength(password, nil)
	if result.Score <= 2 {
		fmt.Fprintf(os.Stderr, "Warning: password strength is weak (score %d/4)\n", result.Score)
	}
}

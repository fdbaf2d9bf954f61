package common

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"
)

// DefaultPasswordEnv is the environment variable consulted for cipher passwords
const DefaultPasswordEnv = "SAVEKIT_PASSWORD"

const minPasswordLength = 8

var (
	errEmptyPassword    = errors.New("password cannot be empty")
	errPasswordMismatch = errors.New("passwords do not match")
)

// ReadPassword returns the cipher password held in envVar. When the variable
// is unset the user is prompted twice on the terminal. Either way the
// password must pass the strength check.
func ReadPassword(envVar string) (string, error) {
	if envVar == "" {
		envVar = DefaultPasswordEnv
	}
	password := os.Getenv(envVar)
	if password == "" {
		var err error
		if password, err = promptPassword(os.Stdin, os.Stdout); err != nil {
			return "", fmt.Errorf("%s not set and prompt failed: %w", envVar, err)
		}
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	return password, nil
}

// promptPassword asks for the password and its confirmation on out, reading
// answers from in. Echo is disabled when in is a terminal.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	read := lineReader(in, out)

	_, _ = fmt.Fprint(out, "Enter save encryption password: ")
	password, err := read()
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(out, "Confirm save encryption password: ")
	confirmation, err := read()
	if err != nil {
		return "", err
	}
	if password != confirmation {
		return "", errPasswordMismatch
	}
	return password, nil
}

func lineReader(in io.Reader, out io.Writer) func() (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return nonEmpty(string(b))
		}
	}
	// pipes and redirects
	br := bufio.NewReader(in)
	return func() (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return nonEmpty(line)
	}
}

func nonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmptyPassword
	}
	return s, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var missing []string
	for _, c := range []struct {
		ok   bool
		name string
	}{
		{upper, "uppercase letter"},
		{lower, "lowercase letter"},
		{digit, "digit"},
		{special, "special character"},
	} {
		if !c.ok {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}
	return nil
}

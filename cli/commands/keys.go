package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trackkit/trackkit-go/cli/keystore"
)

func (a *App) newKeysCommand() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API secrets",
		Long:  `Manage API secrets for providers that require one (GA4). Secrets are stored encrypted.`,
	}

	keys.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Store an API secret",
		Long:  `Store an API secret under a name referenced by api_secret_ref in the config file. The secret is prompted without echo.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKeysSet(args[0])
		},
	})

	keys.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored secret names",
		Long:  `List all stored secrets. Only names are shown, never values.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKeysList()
		},
	})

	keys.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKeysDelete(args[0])
		},
	})

	return keys
}

func (a *App) runKeysSet(name string) error {
	fmt.Fprintf(a.stdout, "Enter secret for %s: ", name)

	secret, err := a.readSecret()
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Set(name, secret); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	fmt.Fprintf(a.stdout, "Secret %s stored successfully.\n", name)
	return nil
}

// readSecret reads without echo when stdin is a terminal, and falls back
// to plain line reading for piped input.
func (a *App) readSecret() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secretBytes, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(a.stdout) // Newline after hidden input
		return string(secretBytes), nil
	}

	reader := bufio.NewReader(a.stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) runKeysList() error {
	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	names, err := ks.List()
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No secrets stored.")
		return nil
	}

	fmt.Fprintln(a.stdout, "Stored secrets:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}

	return nil
}

func (a *App) runKeysDelete(name string) error {
	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Delete(name); err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no secret stored for %s", name)
		}
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	fmt.Fprintf(a.stdout, "Secret %s deleted.\n", name)
	return nil
}

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackkit/trackkit-go/providers"

	// Register the built-in adapters.
	_ "github.com/trackkit/trackkit-go/providers/debug"
	_ "github.com/trackkit/trackkit-go/providers/ga4"
	_ "github.com/trackkit/trackkit-go/providers/plausible"
	_ "github.com/trackkit/trackkit-go/providers/umami"
)

func (a *App) newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List available analytics providers",
		Long:  `List registered provider adapters and whether each is configured.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProviders()
		},
	}
}

func (a *App) runProviders() error {
	names := providers.List()

	if a.jsonOutput {
		type entry struct {
			Name       string `json:"name"`
			Configured bool   `json:"configured"`
			Default    bool   `json:"default"`
		}
		entries := make([]entry, 0, len(names))
		for _, name := range names {
			entries = append(entries, entry{
				Name:       name,
				Configured: a.cfg != nil && a.cfg.GetProvider(name) != nil,
				Default:    a.cfg != nil && a.cfg.DefaultProvider == name,
			})
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No providers registered.")
		return nil
	}

	fmt.Fprintln(a.stdout, "Available providers:")
	for _, name := range names {
		marks := ""
		if a.cfg != nil && a.cfg.GetProvider(name) != nil {
			marks += " (configured)"
		}
		if a.cfg != nil && a.cfg.DefaultProvider == name {
			marks += " (default)"
		}
		fmt.Fprintf(a.stdout, "  - %s%s\n", name, marks)
	}
	return nil
}

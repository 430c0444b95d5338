package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackkit/trackkit-go/core"
)

func (a *App) newConsentCommand() *cobra.Command {
	consent := &cobra.Command{
		Use:   "consent",
		Short: "Manage persisted analytics consent",
		Long: `Manage the consent state honored by 'trackkit send' and by SDK
clients configured with the same consent store.

Consent is persisted with the policy version from the config file; bumping
policy_version invalidates stored consent and returns it to pending.`,
	}

	consent.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current consent state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsentStatus()
		},
	})

	consent.AddCommand(&cobra.Command{
		Use:   "grant",
		Short: "Grant analytics consent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsentSet(core.ConsentGranted)
		},
	})

	consent.AddCommand(&cobra.Command{
		Use:   "deny",
		Short: "Deny analytics consent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsentSet(core.ConsentDenied)
		},
	})

	consent.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear stored consent, returning to pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.consentManager()
			mgr.Reset()
			fmt.Fprintln(a.stdout, "consent reset to pending")
			return nil
		},
	})

	return consent
}

func (a *App) consentManager() *core.ConsentManager {
	return core.NewConsentManager(core.ConsentConfig{
		Store:         a.newConsentStore(),
		PolicyVersion: a.policyVersion(),
	})
}

func (a *App) runConsentStatus() error {
	snap := a.consentManager().Snapshot()

	if a.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"status":        snap.Status,
			"method":        snap.Method,
			"policyVersion": snap.PolicyVersion,
		})
	}

	fmt.Fprintf(a.stdout, "consent: %s\n", snap.Status)
	if snap.Method != "" {
		fmt.Fprintf(a.stdout, "  method:         %s\n", snap.Method)
	}
	if snap.PolicyVersion != "" {
		fmt.Fprintf(a.stdout, "  policy version: %s\n", snap.PolicyVersion)
	}
	if snap.UpdatedAt > 0 {
		fmt.Fprintf(a.stdout, "  updated:        %s\n",
			time.UnixMilli(snap.UpdatedAt).Format(time.RFC3339))
	}
	return nil
}

func (a *App) runConsentSet(status core.ConsentStatus) error {
	mgr := a.consentManager()
	switch status {
	case core.ConsentGranted:
		mgr.Grant()
		fmt.Fprintln(a.stdout, "consent granted")
	case core.ConsentDenied:
		mgr.Deny()
		fmt.Fprintln(a.stdout, "consent denied")
	}
	return nil
}

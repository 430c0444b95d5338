package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers/debug"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

func (a *App) newSendCommand() *cobra.Command {
	send := &cobra.Command{
		Use:   "send",
		Short: "Send an analytics event",
		Long: `Send a single analytics event through the configured provider.

Persisted consent is honored: a denied consent state blocks analytics
events until 'trackkit consent grant' is run.

Examples:
  trackkit send track signup --prop plan=pro
  trackkit send pageview --url /pricing --provider plausible
  trackkit send identify user-42`,
	}

	send.PersistentFlags().StringArrayVar(&a.sendProps, "prop", nil, "event property as key=value (repeatable)")
	send.PersistentFlags().StringVar(&a.sendURL, "url", "", "page URL/path for the event")
	send.PersistentFlags().StringVar(&a.sendTitle, "title", "", "page title")
	send.PersistentFlags().StringVar(&a.sendReferrer, "referrer", "", "page referrer")
	send.PersistentFlags().BoolVar(&a.sendDryRun, "dry-run", false, "print the event instead of delivering it")
	send.PersistentFlags().DurationVar(&a.sendTimeout, "timeout", defaultSendTimeout, "delivery timeout")

	send.AddCommand(&cobra.Command{
		Use:   "track <event-name>",
		Short: "Send a named event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSend(func(c *core.Client) {
				props, _ := parseProps(a.sendProps)
				c.Track(args[0], props)
			})
		},
	})

	send.AddCommand(&cobra.Command{
		Use:   "pageview",
		Short: "Send a pageview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSend(func(c *core.Client) {
				c.Pageview(a.pageContext())
			})
		},
	})

	send.AddCommand(&cobra.Command{
		Use:   "identify <user-id>",
		Short: "Associate subsequent events with a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSend(func(c *core.Client) {
				c.Identify(args[0])
			})
		},
	})

	return send
}

const defaultSendTimeout = 15 * time.Second

func (a *App) pageContext() *core.PageContext {
	if a.sendURL == "" && a.sendTitle == "" && a.sendReferrer == "" {
		return nil
	}
	return &core.PageContext{
		URL:      a.sendURL,
		Path:     a.sendURL,
		Title:    a.sendTitle,
		Referrer: a.sendReferrer,
	}
}

func (a *App) runSend(emit func(*core.Client)) error {
	if _, err := parseProps(a.sendProps); err != nil {
		return exitWithCode(ExitValidation, err)
	}

	providerName := a.provider
	if providerName == "" && !a.sendDryRun {
		return exitWithCode(ExitValidation, fmt.Errorf("provider required: use --provider flag or set default_provider in config"))
	}

	factory, err := a.sendFactory(providerName)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	// Collect SDK errors; the facade never returns them directly.
	var errMu sync.Mutex
	var sdkErrs []*core.Error

	client := core.NewClient(core.Config{
		ProviderName: providerName,
		Provider:     factory,
		SiteID:       a.siteID,
		Host:         a.host,
		Environment:  core.EnvClient,
		Consent: core.ConsentConfig{
			Store:         a.newConsentStore(),
			PolicyVersion: a.policyVersion(),
		},
		OnError: func(e *core.Error) {
			errMu.Lock()
			sdkErrs = append(sdkErrs, e)
			errMu.Unlock()
		},
	})
	defer client.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), a.sendTimeout)
	defer cancel()

	client.Init(ctx)
	emit(client)

	if err := client.WaitForReady(ctx); err != nil {
		return a.sendError(err)
	}

	snap := client.ConsentSnapshot()
	if snap.Status == core.ConsentDenied {
		return exitWithCode(ExitValidation,
			fmt.Errorf("consent is denied; run 'trackkit consent grant' to enable delivery"))
	}

	errMu.Lock()
	firstErr := firstDeliveryError(sdkErrs)
	errMu.Unlock()
	if firstErr != nil {
		return a.sendError(firstErr)
	}

	displayName := providerName
	if a.sendDryRun {
		displayName = "debug"
	}
	if a.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		return enc.Encode(map[string]any{
			"provider":  displayName,
			"delivered": true,
			"consent":   snap.Status,
		})
	}
	if a.verbose {
		fmt.Fprintf(a.stderr, "provider %s state: %s\n",
			displayName, client.ProviderSnapshot().State)
	}
	fmt.Fprintln(a.stdout, "event delivered")
	return nil
}

// sendFactory returns the adapter factory for the send path: the debug
// adapter under --dry-run, the configured provider otherwise.
func (a *App) sendFactory(name string) (core.ProviderFactory, error) {
	if a.sendDryRun {
		return func() (core.Provider, error) {
			return debug.New(debug.WithWriter(a.stdout)), nil
		}, nil
	}

	pc, err := a.resolveProviderConfig(name)
	if err != nil {
		return nil, err
	}
	return func() (core.Provider, error) {
		return a.buildProvider(name, pc)
	}, nil
}

func (a *App) policyVersion() string {
	if a.cfg == nil {
		return ""
	}
	return a.cfg.PolicyVersion
}

// firstDeliveryError skips queue/noise errors and returns the first error
// worth failing the command for.
func firstDeliveryError(errs []*core.Error) *core.Error {
	for _, e := range errs {
		switch e.Code {
		case core.ErrCodeNetworkError, core.ErrCodeProviderError, core.ErrCodeInitFailed, core.ErrCodeInvalidConfig:
			return e
		}
	}
	return nil
}

func parseProps(pairs []string) (core.Props, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(core.Props, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --prop %q: want key=value", pair)
		}
		props[key] = value
	}
	return props, nil
}

// sendError maps an SDK failure to output and an exit code.
func (a *App) sendError(err error) error {
	var sdkErr *core.Error
	if errors.As(err, &sdkErr) {
		if a.jsonOutput {
			a.outputErrorJSON(sdkErr)
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", sdkErr.Message)
			if sdkErr.Provider != "" {
				fmt.Fprintf(a.stderr, "  Provider: %s\n", sdkErr.Provider)
			}
		}

		switch sdkErr.Code {
		case core.ErrCodeNetworkError:
			return exitWithCode(ExitNetwork, err)
		case core.ErrCodeInvalidConfig:
			return exitWithCode(ExitValidation, err)
		default:
			return exitWithCode(ExitProvider, err)
		}
	}

	if errors.Is(err, core.ErrNetwork) {
		if a.jsonOutput {
			a.outputSimpleErrorJSON("network_error", err.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: network error: %v\n", err)
		}
		return exitWithCode(ExitNetwork, err)
	}

	// Generic error
	if a.jsonOutput {
		a.outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitProvider, err)
}

func (a *App) outputErrorJSON(sdkErr *core.Error) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":     string(sdkErr.Code),
			"message":  sdkErr.Message,
			"provider": sdkErr.Provider,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func (a *App) outputSimpleErrorJSON(errType, message string) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

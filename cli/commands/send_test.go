package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/trackkit/trackkit-go/cli/config"
	"github.com/trackkit/trackkit-go/core"
)

func TestExitError(t *testing.T) {
	err := exitWithCode(ExitValidation, errors.New("test error"))

	if err.Error() != "test error" {
		t.Errorf("Error() = %q, want 'test error'", err.Error())
	}

	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatal("expected *exitError type")
	}

	if exitErr.ExitCode() != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", exitErr.ExitCode(), ExitValidation)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"success", ExitSuccess, 0},
		{"validation", ExitValidation, 1},
		{"provider", ExitProvider, 2},
		{"network", ExitNetwork, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("Exit%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}

func TestParseProps(t *testing.T) {
	props, err := parseProps([]string{"plan=pro", "seats=5"})
	if err != nil {
		t.Fatalf("parseProps() error = %v", err)
	}
	if props["plan"] != "pro" || props["seats"] != "5" {
		t.Errorf("parseProps() = %v", props)
	}

	if _, err := parseProps([]string{"noequals"}); err == nil {
		t.Error("parseProps() should reject entries without '='")
	}
	if _, err := parseProps([]string{"=value"}); err == nil {
		t.Error("parseProps() should reject empty keys")
	}

	props, err = parseProps(nil)
	if err != nil || props != nil {
		t.Errorf("parseProps(nil) = %v, %v; want nil, nil", props, err)
	}
}

// newTestApp builds an App with in-memory dependencies and captured output.
func newTestApp(t *testing.T, cfg *config.Config, opts ...AppOption) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{Providers: map[string]config.ProviderConfig{}}
	}

	var stdout, stderr bytes.Buffer
	store := core.NewMemoryConsentStore()

	base := []AppOption{
		WithIO(strings.NewReader(""), &stdout, &stderr),
		WithConfigLoader(func(string) (*config.Config, error) { return cfg, nil }),
		WithConsentStoreFactory(func() core.ConsentStore { return store }),
	}
	app := NewApp(append(base, opts...)...)
	return app, &stdout, &stderr
}

func TestSendDryRunPrintsEvent(t *testing.T) {
	app, stdout, _ := newTestApp(t, nil)
	app.SetArgs([]string{"send", "track", "signup", "--dry-run", "--prop", "plan=pro"})

	if err := app.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, `"call":"track"`) {
		t.Errorf("dry-run output missing event line: %q", out)
	}
	if !strings.Contains(out, `"name":"signup"`) {
		t.Errorf("dry-run output missing event name: %q", out)
	}
	if !strings.Contains(out, "event delivered") {
		t.Errorf("missing confirmation: %q", out)
	}
}

func TestSendRequiresProvider(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	app.SetArgs([]string{"send", "track", "signup"})

	err := app.Execute()
	if err == nil {
		t.Fatal("Execute() should fail without a provider")
	}

	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if exitErr.ExitCode() != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", exitErr.ExitCode(), ExitValidation)
	}
}

func TestSendDeniedConsentBlocks(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	// Deny consent first, through the same store.
	app.SetArgs([]string{"consent", "deny"})
	if err := app.Execute(); err != nil {
		t.Fatalf("consent deny error = %v", err)
	}

	app.SetArgs([]string{"send", "track", "signup", "--dry-run"})
	err := app.Execute()
	if err == nil {
		t.Fatal("Execute() should fail with denied consent")
	}

	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if exitErr.ExitCode() != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", exitErr.ExitCode(), ExitValidation)
	}
}

func TestSendUsesConfiguredProvider(t *testing.T) {
	cfg := &config.Config{
		DefaultProvider: "fake",
		Providers: map[string]config.ProviderConfig{
			"fake": {SiteID: "site-1", Host: "https://stats.example.com"},
		},
	}

	var gotName string
	var gotCfg core.ProviderConfig
	delivered := &capturingProvider{}

	app, stdout, _ := newTestApp(t, cfg, WithProviderBuilder(
		func(name string, pc core.ProviderConfig) (core.Provider, error) {
			gotName = name
			gotCfg = pc
			return delivered, nil
		}))
	app.SetArgs([]string{"send", "track", "signup"})

	if err := app.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if gotName != "fake" {
		t.Errorf("provider name = %q, want fake", gotName)
	}
	if gotCfg.SiteID != "site-1" {
		t.Errorf("SiteID = %q, want site-1", gotCfg.SiteID)
	}
	if len(delivered.tracks) != 1 || delivered.tracks[0] != "signup" {
		t.Errorf("delivered tracks = %v, want [signup]", delivered.tracks)
	}
	if !strings.Contains(stdout.String(), "event delivered") {
		t.Errorf("missing confirmation: %q", stdout.String())
	}
}

func TestSendErrorMapsNetworkExitCode(t *testing.T) {
	app, _, stderr := newTestApp(t, nil)

	err := app.sendError(&core.Error{
		Code:    core.ErrCodeNetworkError,
		Message: "endpoint unreachable",
	})

	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if exitErr.ExitCode() != ExitNetwork {
		t.Errorf("ExitCode() = %d, want %d (ExitNetwork)", exitErr.ExitCode(), ExitNetwork)
	}
	if !strings.Contains(stderr.String(), "endpoint unreachable") {
		t.Errorf("stderr missing message: %q", stderr.String())
	}
}

func TestSendErrorMapsProviderExitCode(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	err := app.sendError(&core.Error{
		Code:     core.ErrCodeProviderError,
		Provider: "umami",
		Message:  "endpoint returned HTTP 400",
	})

	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatalf("expected *exitError, got %T", err)
	}
	if exitErr.ExitCode() != ExitProvider {
		t.Errorf("ExitCode() = %d, want %d (ExitProvider)", exitErr.ExitCode(), ExitProvider)
	}
}

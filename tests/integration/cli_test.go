//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestCLI_Version(t *testing.T) {
	home := tempHome(t)

	result := runCLI(t, home, "version")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "trackkit") {
		t.Errorf("Stdout should contain version banner, got: %s", result.Stdout)
	}
}

func TestCLI_Version_JSON(t *testing.T) {
	home := tempHome(t)

	result := runCLI(t, home, "version", "--json")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	var output map[string]any
	if err := json.Unmarshal([]byte(result.Stdout), &output); err != nil {
		t.Fatalf("Output is not valid JSON: %v\nOutput: %s", err, result.Stdout)
	}
	if _, ok := output["version"]; !ok {
		t.Error("JSON output missing 'version' field")
	}
	if _, ok := output["goVersion"]; !ok {
		t.Error("JSON output missing 'goVersion' field")
	}
}

func TestCLI_Providers(t *testing.T) {
	home := tempHome(t)

	result := runCLI(t, home, "providers")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	for _, name := range []string{"umami", "plausible", "ga4", "debug"} {
		if !strings.Contains(result.Stdout, name) {
			t.Errorf("Stdout should list %q, got: %s", name, result.Stdout)
		}
	}
}

func TestCLI_SendDryRun(t *testing.T) {
	home := tempHome(t)

	result := runCLI(t, home, "send", "track", "signup",
		"--dry-run",
		"--prop", "plan=pro")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, `"name":"signup"`) {
		t.Errorf("Stdout should contain the dry-run event, got: %s", result.Stdout)
	}
}

func TestCLI_Send_MissingProvider(t *testing.T) {
	home := tempHome(t)

	result := runCLI(t, home, "send", "track", "signup")

	if result.ExitCode != 1 {
		t.Errorf("Exit code = %d, want 1\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stderr, "provider") {
		t.Errorf("Stderr should mention provider, got: %s", result.Stderr)
	}
}

func TestCLI_Send_Umami(t *testing.T) {
	home := tempHome(t)

	var (
		mu     sync.Mutex
		path   string
		body   string
		method string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		body = string(raw)
		method = r.Method
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := runCLI(t, home, "send", "track", "signup",
		"--provider", "umami",
		"--site-id", "site-123",
		"--host", server.URL,
		"--prop", "plan=pro")

	if result.ExitCode != 0 {
		t.Fatalf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPost || path != "/api/send" {
		t.Errorf("request = %s %s, want POST /api/send", method, path)
	}
	if !strings.Contains(body, "signup") || !strings.Contains(body, "site-123") {
		t.Errorf("request body missing event data: %s", body)
	}
}

func TestCLI_Send_NetworkErrorExitCode(t *testing.T) {
	home := tempHome(t)

	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	result := runCLI(t, home, "send", "track", "signup",
		"--provider", "umami",
		"--site-id", "site-123",
		"--host", url)

	if result.ExitCode != 3 {
		t.Errorf("Exit code = %d, want 3\nStderr: %s", result.ExitCode, result.Stderr)
	}
}

func TestCLI_ConsentLifecycle(t *testing.T) {
	home := tempHome(t)

	result := runCLI(t, home, "consent", "status")
	if result.ExitCode != 0 {
		t.Fatalf("status exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "pending") {
		t.Errorf("initial status should be pending, got: %s", result.Stdout)
	}

	result = runCLI(t, home, "consent", "grant")
	if result.ExitCode != 0 {
		t.Fatalf("grant exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}

	result = runCLI(t, home, "consent", "status")
	if !strings.Contains(result.Stdout, "granted") {
		t.Errorf("status after grant should be granted, got: %s", result.Stdout)
	}

	result = runCLI(t, home, "consent", "deny")
	if result.ExitCode != 0 {
		t.Fatalf("deny exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}

	// A denied record blocks send, even dry runs.
	result = runCLI(t, home, "send", "track", "signup", "--dry-run")
	if result.ExitCode != 1 {
		t.Errorf("send under denied consent exit code = %d, want 1\nStderr: %s",
			result.ExitCode, result.Stderr)
	}

	result = runCLI(t, home, "consent", "reset")
	if result.ExitCode != 0 {
		t.Fatalf("reset exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}

	result = runCLI(t, home, "consent", "status")
	if !strings.Contains(result.Stdout, "pending") {
		t.Errorf("status after reset should be pending, got: %s", result.Stdout)
	}
}

func TestCLI_KeysRoundTrip(t *testing.T) {
	home := tempHome(t)

	result := runCLIWithStdin(t, home, "s3cret-value\n", "keys", "set", "ga4")
	if result.ExitCode != 0 {
		t.Fatalf("keys set exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "stored") {
		t.Errorf("keys set output = %s", result.Stdout)
	}

	result = runCLI(t, home, "keys", "list")
	if result.ExitCode != 0 {
		t.Fatalf("keys list exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "ga4") {
		t.Errorf("keys list should show ga4, got: %s", result.Stdout)
	}
	if strings.Contains(result.Stdout, "s3cret-value") {
		t.Errorf("keys list must never print secret values, got: %s", result.Stdout)
	}

	result = runCLI(t, home, "keys", "delete", "ga4")
	if result.ExitCode != 0 {
		t.Fatalf("keys delete exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}

	result = runCLI(t, home, "keys", "delete", "ga4")
	if result.ExitCode == 0 {
		t.Error("deleting a missing key should fail")
	}
}

func TestCLI_Init(t *testing.T) {
	home := tempHome(t)
	workDir := t.TempDir()

	if cliBinary == "" {
		t.Fatal("CLI binary not built")
	}

	projectPath := filepath.Join(workDir, "myapp")
	result := runCLI(t, home, "init", projectPath)

	if result.ExitCode != 0 {
		t.Fatalf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	mainPath := filepath.Join(projectPath, "main.go")
	data, err := os.ReadFile(mainPath)
	if err != nil {
		t.Fatalf("main.go not created: %v", err)
	}
	if !strings.Contains(string(data), "core.NewClient") {
		t.Error("scaffolded main.go should construct a client")
	}

	if _, err := os.Stat(filepath.Join(projectPath, "trackkit.yaml")); err != nil {
		t.Errorf("trackkit.yaml not created: %v", err)
	}
}

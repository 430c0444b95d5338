//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"testing"
)

// cliResult captures the outcome of a CLI invocation.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// tempHome creates an isolated home directory for one test. Config,
// keystore, and consent records all resolve under $HOME/.trackkit, so a
// per-test HOME keeps runs from touching the developer's real state or
// each other.
func tempHome(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// runCLI executes the trackkit CLI with the given arguments under the
// given HOME. It uses the pre-built binary from TestMain.
func runCLI(t *testing.T, home string, args ...string) cliResult {
	t.Helper()
	return runCLIWithStdin(t, home, "", args...)
}

// runCLIWithStdin executes the trackkit CLI with stdin input.
func runCLIWithStdin(t *testing.T, home, stdin string, args ...string) cliResult {
	t.Helper()

	if cliBinary == "" {
		t.Fatal("CLI binary not built - TestMain may not have run")
	}

	cmd := exec.Command(cliBinary, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	if stdin != "" {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return cliResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

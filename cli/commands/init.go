package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"
)

func (a *App) newInitCommand() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init <project-name>",
		Short: "Initialize a new TrackKit project",
		Long: `Initialize a new TrackKit project with a standard structure.

Creates a project directory with:
  - main.go: A starter Go file using the TrackKit SDK
  - trackkit.yaml: Project configuration

Example:
  trackkit init mysite
  trackkit init mysite --provider plausible`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(args[0])
		},
	}

	initCmd.Flags().StringVar(&a.initProvider, "provider", "umami", "Default provider for generated code")

	return initCmd
}

func (a *App) runInit(projectPath string) error {
	projectName := filepath.Base(projectPath)

	// Validate project name (just the base name, not full path)
	if err := validateProjectName(projectName); err != nil {
		return err
	}

	// Check if directory already exists
	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("directory %q already exists", projectPath)
	}

	if err := os.MkdirAll(projectPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", projectPath, err)
	}

	data := templateData{Provider: a.initProvider}

	// Generate main.go
	mainPath := filepath.Join(projectPath, "main.go")
	if err := generateFile(mainPath, mainGoTemplate, data); err != nil {
		return fmt.Errorf("failed to create main.go: %w", err)
	}

	// Generate trackkit.yaml
	configPath := filepath.Join(projectPath, "trackkit.yaml")
	if err := generateFile(configPath, trackkitYamlTemplate, data); err != nil {
		return fmt.Errorf("failed to create trackkit.yaml: %w", err)
	}

	// Print success message
	fmt.Fprintf(a.stdout, "Created TrackKit project: %s\n\n", projectName)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintf(a.stdout, "  cd %s\n", projectPath)
	fmt.Fprintln(a.stdout, "  edit trackkit.yaml with your site ID")
	fmt.Fprintln(a.stdout, "  go run main.go")

	return nil
}

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	// Check for invalid characters
	validName := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}

	// Check for reserved names
	reserved := []string{".", "..", "trackkit"}
	for _, r := range reserved {
		if name == r {
			return fmt.Errorf("invalid project name %q: reserved name", name)
		}
	}

	return nil
}

type templateData struct {
	Provider string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var mainGoTemplate = `package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers"

	_ "github.com/trackkit/trackkit-go/providers/{{.Provider}}"
)

func main() {
	client := core.NewClient(core.Config{
		ProviderName: "{{.Provider}}",
		Provider: func() (core.Provider, error) {
			return providers.Create("{{.Provider}}", core.ProviderConfig{
				SiteID: os.Getenv("TRACKKIT_SITE_ID"),
			})
		},
		OnError: func(err *core.Error) {
			fmt.Fprintln(os.Stderr, "trackkit:", err)
		},
	})
	defer client.Destroy()

	ctx := context.Background()
	client.Init(ctx)
	client.GrantConsent()

	client.Track("hello_world", core.Props{"source": "starter"})

	if err := client.WaitForReady(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	fmt.Println("event sent")
}
`

var trackkitYamlTemplate = `# TrackKit project configuration
default_provider: {{.Provider}}

# Provider configurations
# API secrets should be set via 'trackkit keys set <name>'
providers:
  {{.Provider}}:
    site_id: your-site-id
`

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/swipe/cli/config"
	"github.com/petal-labs/swipe/core"
	"github.com/petal-labs/swipe/tinder"
)

func (a *App) newInitCommand() *cobra.Command {
	var (
		force    bool
		tokenRef string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write a commented config file to --config (default ~/.swipe/config.yaml).

Example:
  swipe init
  swipe init --token-ref work --config ./swipe.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTokenRef(tokenRef); err != nil {
				return exitWithCode(ExitValidation, err)
			}
			path := a.cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return usageError("%s already exists (use --force to overwrite)", path)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			data := configTemplateData{
				BaseURL:        tinder.DefaultBaseURL,
				TokenRef:       tokenRef,
				Concurrency:    core.DefaultBatchConcurrency,
				AttemptTimeout: core.DefaultAttemptTimeout.String(),
				Retry:          core.DefaultBackoffConfig(),
			}
			if err := generateFile(path, configTemplate, data); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Fprintf(a.stdout, "Wrote %s\n\n", path)
			fmt.Fprintln(a.stdout, "Next steps:")
			fmt.Fprintf(a.stdout, "  swipe keys set %s\n", tokenRef)
			fmt.Fprintln(a.stdout, "  swipe recs")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	cmd.Flags().StringVar(&tokenRef, "token-ref", config.DefaultTokenRef, "keystore entry holding the token")
	return cmd
}

var validTokenRef = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func validateTokenRef(name string) error {
	if !validTokenRef.MatchString(name) {
		return fmt.Errorf("invalid token ref %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}
	return nil
}

type configTemplateData struct {
	BaseURL        string
	TokenRef       string
	Concurrency    int
	AttemptTimeout string
	Retry          core.BackoffConfig
}

func generateFile(path string, tmplContent string, data configTemplateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var configTemplate = `# swipe configuration
base_url: {{.BaseURL}}

# Keystore entry holding the auth token ('swipe keys set {{.TokenRef}}').
# TINDER_AUTH_TOKEN in the environment or an env file takes precedence.
token_ref: {{.TokenRef}}
# env_files: [.env]

concurrency: {{.Concurrency}}
attempt_timeout: {{.AttemptTimeout}}

retry:
  max_attempts: {{.Retry.MaxAttempts}}
  base_delay: {{.Retry.BaseDelay}}
  max_delay: {{.Retry.MaxDelay}}
  jitter: {{.Retry.Jitter}}

# Pace requests to stay under the service's limits. 0 disables pacing.
rate_limit:
  requests_per_minute: 0
  burst: 1

# Shared token store for several machines ('swipe keys push').
# redis:
#   url: redis://localhost:6379/0
#   key: swipe:auth_token

auto:
  keywords: [music]
  interval: 1m
  pass_others: false
  # metrics_addr: :9090

log_level: info
`

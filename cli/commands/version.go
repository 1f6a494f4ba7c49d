package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/petal-labs/swipe/tinder"
)

// Build metadata, stamped with
// -ldflags "-X github.com/petal-labs/swipe/cli/commands.Version=v1.0.0".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// versionInfo describes the binary and how it presents itself to the API.
type versionInfo struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	API        string `json:"api"`
	AuthHeader string `json:"auth_header"`
	AppVersion string `json:"app_version"`
	Platform   string `json:"platform"`
	UserAgent  string `json:"user_agent"`
	GoVersion  string `json:"go_version"`
}

func (a *App) identity() versionInfo {
	info := versionInfo{
		Version:    Version,
		Commit:     Commit,
		BuildDate:  BuildDate,
		API:        tinder.DefaultBaseURL,
		AuthHeader: tinder.DefaultAuthHeader,
		AppVersion: tinder.DefaultAppVersion,
		Platform:   tinder.DefaultPlatform,
		UserAgent:  tinder.DefaultUserAgent,
		GoVersion:  runtime.Version(),
	}
	if a.cfg.BaseURL != "" {
		info.API = a.cfg.BaseURL
	}
	if a.cfg.AuthHeader != "" {
		info.AuthHeader = a.cfg.AuthHeader
	}
	return info
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and API client identity",
		Long: `Print the build version and the identity swipe presents to the API:
base URL, auth header, app version, platform and User-Agent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := a.identity()
			if a.jsonOutput {
				return a.printJSON(info)
			}

			fmt.Fprintf(a.stdout, "swipe %s (%s, built %s, %s)\n", info.Version, info.Commit, info.BuildDate, info.GoVersion)
			fmt.Fprintf(a.stdout, "  api:         %s\n", info.API)
			fmt.Fprintf(a.stdout, "  auth header: %s\n", info.AuthHeader)
			fmt.Fprintf(a.stdout, "  client:      %s %s\n", info.Platform, info.AppVersion)
			fmt.Fprintf(a.stdout, "  user agent:  %s\n", info.UserAgent)
			return nil
		},
	}
}

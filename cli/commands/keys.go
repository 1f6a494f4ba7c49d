package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/swipe/cli/keystore"
	"github.com/petal-labs/swipe/core"
	"github.com/petal-labs/swipe/credentials"
)

func (a *App) newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage auth tokens",
		Long: `Manage auth tokens. Tokens are stored encrypted in ~/.swipe/keys.enc;
set SWIPE_MASTER_KEY to choose the encryption secret.`,
	}
	cmd.AddCommand(a.newKeysSetCommand())
	cmd.AddCommand(a.newKeysListCommand())
	cmd.AddCommand(a.newKeysDeleteCommand())
	cmd.AddCommand(a.newKeysPushCommand())
	return cmd
}

// keyName returns the entry named in args, or the configured token_ref.
func (a *App) keyName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.TokenName()
}

func (a *App) openKeystore() (keystore.Keystore, error) {
	ks, err := a.newKeystore()
	if err != nil {
		return nil, exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}
	return ks, nil
}

func (a *App) newKeysSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [name]",
		Short: "Store an auth token",
		Long:  `Store an auth token. The token is prompted without echo when reading from a terminal.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.keyName(args)

			fmt.Fprintf(a.stderr, "Enter auth token for %s: ", name)
			token, err := a.readSecret()
			if err != nil {
				return exitWithCode(ExitValidation, fmt.Errorf("failed to read token: %w", err))
			}
			if token == "" {
				return usageError("token cannot be empty")
			}

			ks, err := a.openKeystore()
			if err != nil {
				return err
			}
			if err := ks.Set(name, token); err != nil {
				return exitWithCode(ExitValidation, fmt.Errorf("failed to store token: %w", err))
			}
			fmt.Fprintf(a.stdout, "Token for %s stored (fingerprint %s).\n", name, core.NewSecret(token).Fingerprint())
			return nil
		},
	}
}

// readSecret reads one line from stdin, without echo on a terminal.
func (a *App) readSecret() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) newKeysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored tokens",
		Long:  `List stored token names. Token values are never shown.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.openKeystore()
			if err != nil {
				return err
			}
			names, err := ks.List()
			if err != nil {
				return exitWithCode(ExitValidation, fmt.Errorf("failed to list tokens: %w", err))
			}

			if a.jsonOutput {
				if names == nil {
					names = []string{}
				}
				return a.printJSON(names)
			}
			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "No tokens stored.")
				return nil
			}
			fmt.Fprintln(a.stdout, "Stored tokens:")
			for _, name := range names {
				fmt.Fprintf(a.stdout, "  - %s\n", name)
			}
			return nil
		},
	}
}

func (a *App) newKeysDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.keyName(args)
			ks, err := a.openKeystore()
			if err != nil {
				return err
			}
			if err := ks.Delete(name); err != nil {
				var nf *keystore.ErrKeyNotFound
				if errors.As(err, &nf) {
					return usageError("no token stored for %s", name)
				}
				return exitWithCode(ExitValidation, fmt.Errorf("failed to delete token: %w", err))
			}
			fmt.Fprintf(a.stdout, "Token for %s deleted.\n", name)
			return nil
		},
	}
}

func (a *App) newKeysPushCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "push [name]",
		Short: "Copy a stored token to the shared redis store",
		Long: `Copy a stored token to redis (redis.url in the config) so other
machines running swipe can read it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Redis.URL == "" {
				return usageError("redis.url is not configured")
			}
			name := a.keyName(args)
			ks, err := a.openKeystore()
			if err != nil {
				return err
			}
			token, err := credentials.Keystore{Store: ks, Name: name}.Token(cmd.Context())
			if err != nil {
				return usageError("%v", err)
			}

			rdb, err := credentials.NewRedisClient(cmd.Context(), a.cfg.Redis.URL)
			if err != nil {
				return exitWithCode(ExitNetwork, err)
			}
			defer rdb.Close()

			key := a.cfg.Redis.Key
			if key == "" {
				key = credentials.DefaultRedisKey
			}
			if err := credentials.SetToken(cmd.Context(), rdb, key, token, ttl); err != nil {
				return exitWithCode(ExitNetwork, err)
			}
			fmt.Fprintf(a.stdout, "Token for %s pushed to %s.\n", name, key)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "expire the shared token after this long (0 keeps it)")
	return cmd
}

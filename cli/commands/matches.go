package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) newMatchesCommand() *cobra.Command {
	var (
		count        int
		withMessages bool
	)
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "List matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > 100 {
				return usageError("--count must be between 1 and 100")
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			matches, err := client.Matches(cmd.Context(), count, withMessages)
			if err != nil {
				return a.handleError(err)
			}

			if a.jsonOutput {
				return a.printJSON(matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(a.stdout, "No matches.")
				return nil
			}
			for _, m := range matches {
				line := fmt.Sprintf("%s  %s", m.ID, m.Person.Name)
				if !m.LastActivityDate.IsZero() {
					line += "  active " + m.LastActivityDate.Format(time.DateOnly)
				}
				if n := len(m.Messages); n > 0 {
					line += fmt.Sprintf("  %d messages", n)
				}
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 60, "number of matches to fetch (1-100)")
	cmd.Flags().BoolVar(&withMessages, "messages", false, "only matches with messages")
	return cmd
}

func (a *App) newMessageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "message <match-id> <text>...",
		Short: "Send a message to a match",
		Long: `Send a message to a match. A message whose delivery cannot be confirmed
is not resent; check the conversation before trying again.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return usageError("message text cannot be empty")
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			msg, err := client.SendMessage(cmd.Context(), args[0], text)
			if err != nil {
				return a.handleError(err)
			}
			if a.jsonOutput {
				return a.printJSON(msg)
			}
			fmt.Fprintf(a.stdout, "Message sent (%s).\n", msg.ID)
			return nil
		},
	}
}

func (a *App) newUnmatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unmatch <match-id>",
		Short: "Remove a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Unmatch(cmd.Context(), args[0]); err != nil {
				return a.handleError(err)
			}
			if a.jsonOutput {
				return a.printJSON(map[string]string{"unmatched": args[0]})
			}
			fmt.Fprintf(a.stdout, "Unmatched %s.\n", args[0])
			return nil
		},
	}
}

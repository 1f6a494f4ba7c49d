package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/swipe/tinder"
)

func (a *App) newRecsCommand() *cobra.Command {
	var v1 bool
	cmd := &cobra.Command{
		Use:   "recs",
		Short: "List recommended profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}

			fetch := client.Recommendations
			if v1 {
				fetch = client.RecommendationsV1
			}
			users, err := fetch(cmd.Context())
			if err != nil {
				return a.handleError(err)
			}

			if a.jsonOutput {
				return a.printJSON(users)
			}
			if len(users) == 0 {
				fmt.Fprintln(a.stdout, "No recommendations right now.")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(a.stdout, "%s  %s\n", u.ID, u)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&v1, "v1", false, "use the legacy recommendations endpoint")
	return cmd
}

func (a *App) newLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like <user-id>...",
		Short: "Like one or more users",
		Long: `Like one or more users. Several ids are liked concurrently, bounded by
--concurrency; one failure does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSwipes(cmd, args, tinder.ActionLike)
		},
	}
}

func (a *App) newPassCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pass <user-id>...",
		Short: "Pass on one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSwipes(cmd, args, tinder.ActionPass)
		},
	}
}

func (a *App) newSuperLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "superlike <user-id>",
		Short: "Super like a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSwipes(cmd, args, tinder.ActionSuperLike)
		},
	}
}

type swipeReport struct {
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	Matched    bool   `json:"matched,omitempty"`
	OutOfLikes bool   `json:"out_of_likes,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}

func (a *App) runSwipes(cmd *cobra.Command, ids []string, action tinder.Action) error {
	client, err := a.client(cmd.Context())
	if err != nil {
		return err
	}

	decisions := make([]tinder.SwipeDecision, len(ids))
	for i, id := range ids {
		decisions[i] = tinder.SwipeDecision{UserID: id, Action: action}
	}
	results := client.Swipe(cmd.Context(), decisions)

	var firstErr error
	reports := make([]swipeReport, len(results))
	for i, r := range results {
		reports[i] = swipeReport{
			UserID:     r.UserID,
			Action:     r.Action.String(),
			Matched:    r.Result.Matched(),
			OutOfLikes: r.Result.OutOfLikes(),
			Attempts:   r.Attempts,
		}
		if r.Err != nil {
			reports[i].Error = r.Err.Error()
			if firstErr == nil {
				firstErr = r.Err
			}
		}
	}

	if a.jsonOutput {
		if err := a.printJSON(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			a.printSwipe(r)
		}
	}

	if firstErr == nil {
		return nil
	}
	failed := 0
	for _, r := range reports {
		if r.Error != "" {
			failed++
		}
	}
	if len(results) == 1 {
		return a.handleError(firstErr)
	}
	return &exitError{
		code:     exitCodeFor(firstErr),
		err:      fmt.Errorf("%d of %d swipes failed", failed, len(results)),
		reported: a.jsonOutput,
	}
}

func (a *App) printSwipe(r swipeReport) {
	switch {
	case r.Error != "":
		fmt.Fprintf(a.stdout, "%-10s %s  failed: %s\n", r.Action, r.UserID, r.Error)
	case r.OutOfLikes:
		fmt.Fprintf(a.stdout, "%-10s %s  out of likes\n", r.Action, r.UserID)
	case r.Matched:
		fmt.Fprintf(a.stdout, "%-10s %s  it's a match!\n", r.Action, r.UserID)
	default:
		fmt.Fprintf(a.stdout, "%-10s %s  ok\n", r.Action, r.UserID)
	}
}

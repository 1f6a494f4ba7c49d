package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/swipe/tinder"
)

func (a *App) newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			p, err := client.Profile(cmd.Context())
			if err != nil {
				return a.handleError(err)
			}
			if a.jsonOutput {
				return a.printJSON(p)
			}

			fmt.Fprintf(a.stdout, "%s (%s)\n", p.Name, p.ID)
			if p.Bio != "" {
				fmt.Fprintf(a.stdout, "  bio:      %s\n", oneLine(p.Bio))
			}
			fmt.Fprintf(a.stdout, "  ages:     %d-%d\n", p.AgeFilterMin, p.AgeFilterMax)
			fmt.Fprintf(a.stdout, "  distance: %d mi\n", p.DistanceFilter)
			fmt.Fprintf(a.stdout, "  photos:   %d\n", len(p.Photos))
			return nil
		},
	}
}

func (a *App) newUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "user <user-id>",
		Short: "Show another user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			u, err := client.User(cmd.Context(), args[0])
			if err != nil {
				return a.handleError(err)
			}
			if a.jsonOutput {
				return a.printJSON(u)
			}
			printUser(a, u)
			return nil
		},
	}
}

func printUser(a *App, u tinder.User) {
	fmt.Fprintf(a.stdout, "%s (%s)\n", u.Name, u.ID)
	if u.Bio != "" {
		fmt.Fprintf(a.stdout, "  bio:      %s\n", oneLine(u.Bio))
	}
	if u.DistanceMi > 0 {
		fmt.Fprintf(a.stdout, "  distance: %.0f mi\n", u.DistanceMi)
	}
	for _, p := range u.Photos {
		fmt.Fprintf(a.stdout, "  photo:    %s\n", p.URL)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

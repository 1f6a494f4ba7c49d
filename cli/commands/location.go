package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *App) newLocationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Change the Passport location",
	}

	set := &cobra.Command{
		Use:   "set <lat> <lon>",
		Short: "Travel to a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return usageError("invalid latitude %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return usageError("invalid longitude %q", args[1])
			}
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return usageError("coordinate %g,%g is out of range", lat, lon)
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Travel(cmd.Context(), lat, lon); err != nil {
				return a.handleError(err)
			}
			if a.jsonOutput {
				return a.printJSON(map[string]float64{"lat": lat, "lon": lon})
			}
			fmt.Fprintf(a.stdout, "Location set to %g,%g.\n", lat, lon)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Return to the device location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.ResetLocation(cmd.Context()); err != nil {
				return a.handleError(err)
			}
			if a.jsonOutput {
				return a.printJSON(map[string]bool{"reset": true})
			}
			fmt.Fprintln(a.stdout, "Location reset.")
			return nil
		},
	}

	cmd.AddCommand(set, reset)
	return cmd
}

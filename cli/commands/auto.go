package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/petal-labs/swipe/core"
	"github.com/petal-labs/swipe/telemetry"
	"github.com/petal-labs/swipe/tinder"
)

const defaultAutoInterval = time.Minute

var defaultAutoKeywords = []string{"music"}

type autoSettings struct {
	keywords    []string
	interval    time.Duration
	passOthers  bool
	metricsAddr string
	once        bool
}

// autoStats summarizes one round.
type autoStats struct {
	Seen    int `json:"seen"`
	Liked   int `json:"liked"`
	Passed  int `json:"passed"`
	Matched int `json:"matched"`
	Failed  int `json:"failed"`
}

func (a *App) newAutoCommand() *cobra.Command {
	var s autoSettings
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Like recommendations whose bio mentions a keyword, on a schedule",
		Long: `Fetch recommendations every --interval and like users whose bio mentions
one of the keywords, or who appear in the likes-you teasers. Swipes run
concurrently, bounded by --concurrency. Stops on Ctrl-C or when the token
expires.

Examples:
  swipe auto --keyword music --keyword hiking
  swipe auto --interval 5m --pass-others --metrics-addr :9090
  swipe auto --once --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.mergeAutoSettings(cmd, &s)
			if s.interval <= 0 {
				return usageError("--interval must be positive")
			}
			return a.runAuto(cmd.Context(), s)
		},
	}
	cmd.Flags().StringSliceVar(&s.keywords, "keyword", nil, "bio keyword to like (repeatable; default \"music\")")
	cmd.Flags().DurationVar(&s.interval, "interval", 0, "time between rounds (default 1m)")
	cmd.Flags().BoolVar(&s.passOthers, "pass-others", false, "pass on users that do not match")
	cmd.Flags().StringVar(&s.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&s.once, "once", false, "run a single round and exit")
	return cmd
}

// mergeAutoSettings fills unset flags from the config file, then defaults.
func (a *App) mergeAutoSettings(cmd *cobra.Command, s *autoSettings) {
	auto := a.cfg.Auto
	flags := cmd.Flags()
	if !flags.Changed("keyword") {
		s.keywords = auto.Keywords
	}
	if !flags.Changed("interval") {
		s.interval = auto.Interval
	}
	if !flags.Changed("pass-others") {
		s.passOthers = auto.PassOthers
	}
	if !flags.Changed("metrics-addr") {
		s.metricsAddr = auto.MetricsAddr
	}

	if len(s.keywords) == 0 {
		s.keywords = defaultAutoKeywords
	}
	if s.interval == 0 {
		s.interval = defaultAutoInterval
	}
}

func (a *App) runAuto(ctx context.Context, s autoSettings) error {
	if s.metricsAddr != "" {
		a.metrics = telemetry.NewMetrics(prometheus.NewRegistry())
		srv := telemetry.NewServer(s.metricsAddr, a.metrics)
		go func() {
			if err := srv.Start(); err != nil {
				a.logger.Error("metrics server stopped", "addr", s.metricsAddr, "error", err)
			}
		}()
		a.onClose(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
		a.logger.Info("serving metrics", "addr", s.metricsAddr)
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	sel := tinder.NewSelector(s.passOthers, s.keywords...)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for round := 1; ; round++ {
		stats, err := a.autoRound(ctx, client, sel)
		if a.jsonOutput {
			_ = a.printJSON(map[string]any{"round": round, "stats": stats})
		}
		switch {
		case ctx.Err() != nil:
			a.logger.Info("auto stopped", "rounds", round)
			return nil
		case err != nil && (s.once || stopsAuto(err)):
			return a.handleError(err)
		case err != nil:
			a.logger.Warn("round failed", "round", round, "error", err)
		default:
			a.logger.Info("round complete",
				"round", round,
				"seen", stats.Seen,
				"liked", stats.Liked,
				"passed", stats.Passed,
				"matched", stats.Matched,
				"failed", stats.Failed,
			)
		}
		if s.once {
			return nil
		}

		select {
		case <-ctx.Done():
			a.logger.Info("auto stopped", "rounds", round)
			return nil
		case <-ticker.C:
		}
	}
}

// autoRound fetches recommendations, decides and swipes once.
func (a *App) autoRound(ctx context.Context, client *tinder.Client, sel *tinder.Selector) (autoStats, error) {
	var stats autoStats

	teasers, err := client.Teasers(ctx)
	if err != nil {
		if stopsAuto(err) {
			return stats, err
		}
		// Teasers only add likes; the round can go on without them.
		a.logger.Debug("teasers unavailable", "error", err)
	}
	sel.UseTeasers(teasers)

	users, err := client.Recommendations(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch recommendations: %w", err)
	}
	stats.Seen = len(users)

	var stop error
	for _, r := range client.Swipe(ctx, sel.Decide(users)) {
		if r.Err != nil {
			stats.Failed++
			if stop == nil && stopsAuto(r.Err) {
				stop = r.Err
			}
			continue
		}
		switch r.Action {
		case tinder.ActionLike, tinder.ActionSuperLike:
			stats.Liked++
		case tinder.ActionPass:
			stats.Passed++
		}
		if r.Result.Matched() {
			stats.Matched++
			a.logger.Info("new match", "user_id", r.UserID)
		}
		if r.Result.OutOfLikes() && stop == nil {
			stop = errOutOfLikes
		}
	}
	return stats, stop
}

var errOutOfLikes = errors.New("out of likes")

// stopsAuto reports failures that another round cannot fix.
func stopsAuto(err error) bool {
	return core.KindOf(err) == core.KindAuthExpired || errors.Is(err, core.ErrNoCredential)
}

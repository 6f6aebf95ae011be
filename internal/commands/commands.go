package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"caltodo/internal/config"
	"caltodo/internal/logging"
	"caltodo/internal/planner"
	"caltodo/internal/storage"
	"caltodo/internal/ui"
)

var ErrBadMonth = errors.New("month must look like YYYY-MM")

type rootOptions struct {
	ConfigPath string
	Month      string
}

// New builds the caltodo command tree.
func New() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "caltodo",
		Short: "Month calendar with a task list per day.",
		Example: `
caltodo
caltodo --month 2024-01
caltodo grid 2024-02
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.ConfigPath, "config", "", "path to config.toml (default $CALTODO_CONFIG or ~/.config/caltodo/config.toml)")
	cmd.Flags().StringVar(&o.Month, "month", "", "month to open, YYYY-MM (default: current month)")

	addGrid(cmd)
	return cmd
}

func runUI(ctx context.Context, o *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	year, month, err := resolveMonth(o.Month, time.Now())
	if err != nil {
		return err
	}

	configPath := o.ConfigPath
	if configPath == "" {
		configPath = config.ResolveConfigPath()
	}
	firstLaunch := false
	if _, err := os.Stat(configPath); err != nil {
		firstLaunch = errors.Is(err, os.ErrNotExist)
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	log := logging.Component(logger, "caltodo")
	log.WithField("month", fmt.Sprintf("%d-%02d", year, int(month))).Info("starting up")
	defer log.Info("shutting down")

	store, err := storage.Open()
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer store.Close()

	p := planner.New(store, year, month,
		planner.WithGranularity(cfg.Granularity()),
		planner.WithLogger(logging.Component(logger, "planner")),
	)
	return ui.Run(ctx, p, cfg, configPath, firstLaunch)
}

// resolveMonth parses YYYY-MM, falling back to now's month when v is empty.
func resolveMonth(v string, now time.Time) (int, time.Month, error) {
	if v == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadMonth, v)
	}
	return t.Year(), t.Month(), nil
}

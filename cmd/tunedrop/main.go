package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/deliver"
	"github.com/tunedrop/tunedrop/internal/logger"
	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/notify"
	"github.com/tunedrop/tunedrop/internal/pipeline"
	"github.com/tunedrop/tunedrop/internal/remote"
	"github.com/tunedrop/tunedrop/internal/runner"
	"github.com/tunedrop/tunedrop/internal/tags"
	"github.com/tunedrop/tunedrop/internal/workspace"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tunedrop: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tunedrop",
		Short:        "Download Apple Music content and deliver it locally or to remote storage",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newFetchCmd(),
		newOptionsCmd(),
	)
	return cmd
}

func newFetchCmd() *cobra.Command {
	var user string
	var rawOptions []string
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Run one download end to end without the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseOptions(rawOptions)
			if err != nil {
				return err
			}
			return fetch(cmd.Context(), args[0], user, options)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "local", "User the workspace and delivery belong to")
	cmd.Flags().StringArrayVarP(&rawOptions, "opt", "o", nil, "Download option as key or key=value (repeatable)")
	return cmd
}

func fetch(ctx context.Context, url, user string, options map[string]string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	var syncer remote.Syncer
	if strings.EqualFold(cfg.Transport, "remote") {
		store, err := remote.New(cfg, zl)
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return err
		}
		syncer = store
	}

	ws := workspace.NewManager(cfg, zl)
	router := deliver.NewRouter(cfg, ws, notify.NewLogMessenger(zl), syncer, zl)
	pipe := pipeline.New(cfg, ws, runner.New(cfg, zl), tags.NewExtractor(cfg, zl), router, zl)

	job := &model.Job{
		ID:        uuid.NewString(),
		UserID:    user,
		SourceURL: url,
		Options:   options,
	}
	if _, err := pipe.Run(ctx, job, notify.NewLogStatus(zl)); err != nil {
		return fmt.Errorf("%s", job.Message)
	}
	return nil
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the supported download options",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tDESCRIPTION")
			for _, spec := range runner.SupportedOptions() {
				value := "-"
				if spec.TakesValue {
					value = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Key, value, spec.Description)
			}
			return w.Flush()
		},
	}
}

// parseOptions turns repeated --opt flags into the pipeline's option map. A
// bare key is a boolean flag; key=value carries the value through.
func parseOptions(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	options := make(map[string]string, len(raw))
	for _, entry := range raw {
		key, value, _ := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid option %q", entry)
		}
		options[key] = strings.TrimSpace(value)
	}
	return options, nil
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		pattern string
		once    bool
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Scan files as they appear in a directory",
		Long: `Watch a directory and scan every file that is created or written there.

Examples:
  # Scan saves as they are copied off the console
  pinrecover watch ./dumps

  # Stop after the first PIN
  pinrecover watch --once --pattern '8000*' ./dumps`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			svc, err := s.service(nil)
			if err != nil {
				return err
			}

			if pattern == "" {
				pattern = s.cfg.Recovery.WatchPattern
			}
			w, err := recovery.NewWatcher(svc, recovery.WatchConfig{
				Dir:      args[0],
				Pattern:  pattern,
				Debounce: s.cfg.Recovery.WatchDebounce.Duration(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintln(cmd.OutOrStdout(), s.out.dim.Render("› Watching "+args[0]))
			found := false
			for ev := range w.Events() {
				s.out.event(ev)
				if ev.Found {
					found = true
					if once {
						return nil
					}
				}
			}
			if !found {
				return errNotFound
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "only scan base names matching this glob (default recovery.watch_pattern)")
	cmd.Flags().BoolVar(&once, "once", false, "exit after the first PIN is found")
	return cmd
}

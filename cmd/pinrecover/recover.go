package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
)

func newRecoverCmd(opts *globalOptions) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "recover --root DIR",
		Short: "Recover the PIN from a mounted SYSTEM partition",
		Long: `Locate the pin save under a mounted or extracted SYSTEM partition and scan it.

The save path relative to the partition root defaults to
save/8000000000000100 and can be changed with recovery.save_path.

Examples:
  pinrecover recover --root /mnt/system`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			svc, err := s.service(nil,
				recovery.WithPreparer(recovery.DirPreparer{Dir: root}),
				recovery.WithStatus(s.out.status),
			)
			if err != nil {
				return err
			}

			report, err := svc.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("preparing SYSTEM volume: %w", err)
			}
			s.out.report(report)
			return result(report)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "root of the mounted SYSTEM partition")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

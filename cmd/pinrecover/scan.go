package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file|->",
		Short: "Scan a single file or stdin for a PIN",
		Long: `Scan a pin save file, or any file holding one, for the stored PIN.

Examples:
  # Scan an extracted save
  pinrecover scan ./8000000000000100

  # Scan from stdin and print the digits
  cat 8000000000000100 | pinrecover scan --reveal -`,
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

			var report *recovery.Report
			if args[0] == "-" {
				report = svc.ScanReader(cmd.Context(), "stdin", cmd.InOrStdin())
			} else {
				report = svc.ScanFile(cmd.Context(), args[0])
			}
			s.out.report(report)
			return result(report)
		},
	}
}

// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/backend/reference"
	"github.com/CapZTr/lime/internal/cli"
)

var (
	log       = commonlog.GetLogger("lime.backend.server")
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "lime-backend",
	Short: "Serve the reference backend over standard input and output",
	Long: `lime-backend serves one compilation session over its standard input and
output using lime's msgpack wire protocol. Logs go to standard error.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli.ConfigureLogging(verbosity)
		b := reference.New()
		log.Info("serving session on stdio")
		if err := backend.Serve(os.Stdin, os.Stdout, b); err != nil {
			return err
		}
		if n := b.Outstanding(); n != 0 {
			log.Warningf("%d program buffers still outstanding", n)
		}
		return nil
	},
}

func main() {
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	if err := rootCmd.Execute(); err != nil {
		cli.Report(os.Stderr, err)
		os.Exit(1)
	}
}

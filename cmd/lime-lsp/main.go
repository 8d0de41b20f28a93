// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp/server"

	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/lsp"
	"github.com/CapZTr/lime/internal/network"
)

const lsName = "lime"

var (
	log       = commonlog.GetLogger("lime.lsp.server")
	verbosity int
	techName  string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:           "lime-lsp",
	Short:         "Language server for lime netlist files",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli.ConfigureLogging(verbosity)

		tech, err := network.ParseTechnology(techName)
		if err != nil {
			return err
		}

		handler := lsp.NewHandler(tech)
		s := server.NewServer(handler.Protocol(), lsName, debug)

		log.Infof("starting %s language server (%s)", lsName, tech)
		return s.RunStdio()
	},
}

func main() {
	rootCmd.Flags().StringVar(&techName, "tech", "mig", "technology documents are elaborated in: mig, aig or xag")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log protocol messages")

	if err := rootCmd.Execute(); err != nil {
		cli.Report(os.Stderr, err)
		os.Exit(1)
	}
}

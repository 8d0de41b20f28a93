// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	_ "github.com/tliron/commonlog/simple"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/config"
	"github.com/CapZTr/lime/internal/errors"
	"github.com/CapZTr/lime/internal/network"
)

var (
	configPath string
	verbosity  int
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lime",
	Short: "Optimize boolean networks and compile them for in-memory architectures",
	Long: `lime preoptimizes majority, AND-inverter and XOR-AND networks and hands
them to a compilation backend for processing-in-memory architectures.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.ConfigureLogging(verbosity)
		var err error
		cfg, err = cli.LoadConfig(configPath)
		return err
	},
}

func parseTechnology(s string) (network.Technology, error) {
	tech, err := network.ParseTechnology(s)
	if err != nil {
		return 0, errors.UnknownToken(errors.ErrorUnknownTechnology, "technology", s, []string{"mig", "aig", "xag"})
	}
	return tech, nil
}

// compilerFlags are the settings a command may override on top of the
// configuration file.
type compilerFlags struct {
	arch, mode, candidates, rewriting string
	sizeFactor                        uint64
}

func (f *compilerFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.arch, "arch", "a", "", "target architecture: "+strings.Join(backend.ArchitectureNames(), ", "))
	fs.StringVar(&f.mode, "mode", "", "compilation mode: "+strings.Join(backend.ModeNames(), ", "))
	fs.StringVar(&f.candidates, "candidates", "", "candidate selection: "+strings.Join(backend.CandidateSelectionNames(), ", "))
	fs.StringVar(&f.rewriting, "rewriting", "", "rewriting strategy: "+strings.Join(backend.RewritingNames(), ", "))
	fs.Uint64Var(&f.sizeFactor, "size-factor", 0, "rewriting size factor")
}

func (f *compilerFlags) apply(cmd *cobra.Command, s *backend.Settings) error {
	var err error
	if f.arch != "" {
		if s.Architecture, err = backend.ParseArchitecture(f.arch); err != nil {
			return errors.UnknownToken(errors.ErrorUnknownArchitecture, "architecture", f.arch, backend.ArchitectureNames())
		}
	}
	if f.mode != "" {
		if s.Mode, err = backend.ParseMode(f.mode); err != nil {
			return errors.UnknownToken(errors.ErrorUnknownMode, "mode", f.mode, backend.ModeNames())
		}
	}
	if f.candidates != "" {
		if s.CandidateSelection, err = backend.ParseCandidateSelection(f.candidates); err != nil {
			return errors.UnknownToken(errors.ErrorUnknownCandidateSelection, "candidate selection strategy", f.candidates, backend.CandidateSelectionNames())
		}
	}
	if f.rewriting != "" {
		if s.Rewriting, err = backend.ParseRewriting(f.rewriting); err != nil {
			return errors.UnknownToken(errors.ErrorUnknownRewriting, "rewriting strategy", f.rewriting, backend.RewritingNames())
		}
	}
	if cmd.Flags().Changed("size-factor") {
		s.SizeFactor = f.sizeFactor
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(suiteCmd)
	rootCmd.AddCommand(reportCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.Report(os.Stderr, err)
		os.Exit(1)
	}
}

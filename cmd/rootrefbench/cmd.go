package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lord/ocaml-swift-example/cmd/rootrefbench/internal/scenario"
	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/rootref"
)

var (
	flagVariant string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rootrefbench",
		Short: "Exercise the rooted reference allocator's engine variants",
	}
	root.PersistentFlags().StringVar(&flagVariant, "variant", "pool", "engine variant: pool, bitmap, or linked")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug-level logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newStressCmd())
	root.AddCommand(newStatsCmd())
	return root
}

func parseVariant(s string) (rootref.Variant, error) {
	switch s {
	case "pool", "":
		return rootref.VariantPool, nil
	case "bitmap":
		return rootref.VariantBitmap, nil
	case "linked":
		return rootref.VariantLinked, nil
	default:
		return 0, fmt.Errorf("unknown variant %q (want pool, bitmap, or linked)", s)
	}
}

func baseConfig() (rootref.Config, error) {
	variant, err := parseVariant(flagVariant)
	if err != nil {
		return rootref.Config{}, err
	}
	cfg := rootref.DefaultConfig()
	cfg.Variant = variant
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the §8 concrete scenarios once each against the selected variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig()
			if err != nil {
				return err
			}
			logger := newLogger(flagVerbose)
			defer logger.Sync() //nolint:errcheck

			names := scenario.Names
			if only != "" {
				names = []scenario.Name{scenario.Name(only)}
			}

			for _, name := range names {
				result, err := scenario.Run(name, cfg, logger)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Println(result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "scenario", "", "run only the named scenario (e.g. s4-minor-gc-fast-path)")
	return cmd
}

func newStressCmd() *cobra.Command {
	var iterations int
	var handlesPerIteration int
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Repeatedly create/delete handles and trigger collections to shake out races and leaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig()
			if err != nil {
				return err
			}
			logger := newLogger(flagVerbose)
			defer logger.Sync() //nolint:errcheck

			rt := hostiface.NewSimulated()
			cfg.Logger = logger
			if !rootref.Setup(rt, cfg) {
				return fmt.Errorf("setup failed unexpectedly")
			}
			defer rootref.Teardown()

			for i := 0; i < iterations; i++ {
				handles := make([]rootref.Handle, 0, handlesPerIteration)
				for j := 0; j < handlesPerIteration; j++ {
					payload := rt.NewMaturePointer()
					if j%3 == 0 {
						payload = rt.NewNurseryPointer()
					}
					handles = append(handles, rootref.Create(payload))
				}
				rt.TriggerMinor(cfg.Domain)
				for _, h := range handles {
					rootref.Delete(h)
				}
				rt.TriggerMajor()
				logger.Info("stress iteration complete", zap.Int("iteration", i))
			}

			var buf bytes.Buffer
			rootref.FprintStats(&buf)
			fmt.Print(buf.String())
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 10, "number of create/collect/delete cycles")
	cmd.Flags().IntVar(&handlesPerIteration, "handles", 2000, "handles created per iteration")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Run the S5 scenario once and print the resulting statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig()
			if err != nil {
				return err
			}
			logger := newLogger(flagVerbose)
			defer logger.Sync() //nolint:errcheck

			rt := hostiface.NewSimulated()
			cfg.Logger = logger
			if !rootref.Setup(rt, cfg) {
				return fmt.Errorf("setup failed unexpectedly")
			}
			defer rootref.Teardown()

			for i := 0; i < 1000; i++ {
				rootref.Create(rt.NewMaturePointer())
			}
			for i := 0; i < 500; i++ {
				rootref.Create(rt.NewNurseryPointer())
			}
			rt.TriggerMajor()
			rootref.PrintStats()
			return nil
		},
	}
}

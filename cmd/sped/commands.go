package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath string
	modeName   string
	dsn        string
	verbose    bool

	contextPairs map[string]string
	addr         string

	rootCmd = &cobra.Command{
		Use:   "sped",
		Short: "Adaptive processing dispatcher",
		Long: `sped routes each input to a baseline or an enhanced execution path
based on the configured mode and the estimated input complexity.`,
		SilenceUsage: true,
	}

	processCmd = &cobra.Command{
		Use:   "process [input...]",
		Short: "Dispatch one input and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runProcess,
	}

	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Print the state snapshot of a freshly configured engine",
		RunE:  runState,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatcher over HTTP",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML settings file")
	rootCmd.PersistentFlags().StringVar(&modeName, "mode", "", "dispatch mode: classical, quantum, hybrid or adaptive")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres DSN for persistent memory; in-memory when empty")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log dispatcher events")

	processCmd.Flags().StringToStringVar(&contextPairs, "context", nil, "call context as key=value pairs")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	rootCmd.AddCommand(processCmd, stateCmd, serveCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{configPath: configPath, mode: modeName, dsn: dsn, verbose: verbose})
	if err != nil {
		return err
	}
	defer a.Close()

	data := make(map[string]any, len(contextPairs))
	for k, v := range contextPairs {
		data[k] = v
	}

	result := a.engine.Process(cmd.Context(), strings.Join(args, " "), data)
	if err := printJSON(cmd, result); err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("process failed: %s", result.Error)
	}
	return nil
}

func runState(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), appOptions{configPath: configPath, mode: modeName, dsn: dsn, verbose: verbose})
	if err != nil {
		return err
	}
	defer a.Close()

	return printJSON(cmd, a.engine.State(cmd.Context()))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

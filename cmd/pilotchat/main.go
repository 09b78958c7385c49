// Package main provides the pilotchat CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/richinex/pilotchat/cli"
	"github.com/richinex/pilotchat/config"
)

var (
	// Global flags
	provider  string
	model     string
	files     []string
	storePath string
	verbose   bool

	// Logger
	logger *zap.Logger
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "pilotchat [prompt...]",
		Short: "Chat with completion providers from the terminal",
		Long: `An interactive chat client for the terminal.

Streams responses token by token, tracks referenced files so only their
changed lines are re-sent, and resumes the conversation for the current
directory between runs. Type 'exit' to leave the interactive loop.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdin, err := cli.ReadPipedStdin()
			if err != nil {
				return err
			}
			prompt := strings.Join(args, " ")
			opts := options()

			// Piped input means no terminal to loop on.
			if stdin != "" {
				return cli.RunOnce(context.Background(), prompt, stdin, opts)
			}
			return cli.RunInteractive(context.Background(), prompt, "", opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "completion provider (copilot, openai, anthropic, gemini)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "model to use (provider default when empty)")
	rootCmd.PersistentFlags().StringSliceVarP(&files, "files", "f", nil, "file path[:start-end] to reference (comma separated)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite database path for session storage (JSON files when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(tcpCmd())
	rootCmd.AddCommand(commitCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(clearCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider:  provider,
		Model:     model,
		Files:     files,
		StorePath: storePath,
		Verbose:   verbose,
	}
}

// initLogger writes structured logs to a file under the cache root so the
// terminal stays clean for streamed output.
func initLogger() error {
	settings, err := config.New(provider)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(settings.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{settings.LogFile}
	cfg.ErrorOutputPaths = []string{settings.LogFile}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func tcpCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "tcp",
		Short: "Serve prompts over a local TCP socket",
		Long: `Listens for requests of the form 'files@prompt' (files optional,
comma separated) and streams each reply back over the connection.
Send 'exit' to stop the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunTCP(context.Background(), "127.0.0.1:"+port, options())
		},
	}

	cmd.Flags().StringVar(&port, "port", "4000", "port to bind")

	return cmd
}

func commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit [prompt...]",
		Short: "Write a commit message for the staged changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdin, err := cli.ReadPipedStdin()
			if err != nil {
				return err
			}
			return cli.Commit(context.Background(), strings.Join(args, " "), stdin, options())
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Models(context.Background(), options())
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the saved chat for the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Clear(context.Background(), options())
		},
	}
}

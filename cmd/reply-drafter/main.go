package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-reply-generator/internal/adapters/frontend"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// errGenerationFailed signals that the failure was already rendered
var errGenerationFailed = errors.New("reply generation failed")

func main() {
	root := &cobra.Command{
		Use:           "reply-drafter",
		Short:         "Draft replies to emails with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(generateCmd())
	root.AddCommand(tonesCmd())

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errGenerationFailed) {
			fmt.Fprintln(os.Stderr, renderError(err))
		}
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	flags := &di.CLIFlags{}

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate a reply to the email read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.InputFile = args[0]
			}
			flags.Stdout = cmd.OutOrStdout()
			flags.Stderr = cmd.ErrOrStderr()

			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(func(cli *frontend.CLIFrontend, llmClient core.LLMClient, logger *zap.Logger) error {
				return runGenerate(cmd.Context(), flags, cli, llmClient, logger)
			})
		},
	}

	flags.BindFlags(cmd.Flags())
	return cmd
}

func runGenerate(ctx context.Context, flags *di.CLIFlags, cli *frontend.CLIFrontend, llmClient core.LLMClient, logger *zap.Logger) error {
	defer logger.Sync()

	// Close any resources that need closing
	if closer, ok := llmClient.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close LLM client", zap.Error(err))
			}
		}()
	}

	var input io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		logger.Debug("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		logger.Debug("Reading email from stdin")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := cli.Run(ctx, input, flags.Tone)
	if err != nil {
		return err
	}
	if !result.OK() {
		return errGenerationFailed
	}
	return nil
}

func tonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tones",
		Short: "List the supported reply tones",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, tone := range core.Tones() {
				fmt.Fprintln(cmd.OutOrStdout(), tone)
			}
		},
	}
}

// renderError formats startup failures the way generation failures are shown
func renderError(err error) string {
	root := dig.RootCause(err)
	var replyErr *core.ReplyError
	if errors.As(root, &replyErr) {
		return fmt.Sprintf("Error (%s): %s", replyErr.Kind, replyErr.Error())
	}
	return fmt.Sprintf("Error: %v", root)
}

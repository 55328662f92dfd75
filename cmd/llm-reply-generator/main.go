package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/di"
	"github.com/mikey/llm-reply-generator/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", dig.RootCause(err))
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontends []ports.Frontend,
	llmClient core.LLMClient,
) error {
	defer logger.Sync()

	// Start the frontends
	var started []ports.Frontend
	for _, fe := range frontends {
		if err := fe.Start(); err != nil {
			logger.Error("Failed to start frontend", zap.String("frontend", fe.Name()), zap.Error(err))
			stopAll(logger, started)
			return err
		}
		started = append(started, fe)
	}

	logger.Info("Reply generator running",
		zap.String("provider", llmClient.Provider()),
		zap.Int("frontends", len(started)))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	stopAll(logger, started)

	// Close any resources that need closing
	if closer, ok := llmClient.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

func stopAll(logger *zap.Logger, frontends []ports.Frontend) {
	for _, fe := range frontends {
		if err := fe.Stop(); err != nil {
			logger.Error("Failed to stop frontend", zap.String("frontend", fe.Name()), zap.Error(err))
		}
	}
}

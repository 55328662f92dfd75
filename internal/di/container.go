package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-reply-generator/internal/config"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/factory"
	"github.com/mikey/llm-reply-generator/internal/logging"
	"github.com/mikey/llm-reply-generator/internal/metrics"
	"github.com/mikey/llm-reply-generator/internal/ports"
	"github.com/mikey/llm-reply-generator/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	return buildContainer(loadServerConfig)
}

func buildContainer(loadConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(loadConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideReplyService(container); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.NewRegistry); err != nil {
		return nil, err
	}
	if err := container.Provide(func(reg *prometheus.Registry) *metrics.ReplyMetrics {
		return metrics.NewReplyMetrics(reg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, m *metrics.ReplyMetrics) core.Observer {
		if !cfg.GetMetrics().Enabled {
			return nil
		}
		return m
	}); err != nil {
		return nil, err
	}

	// Register frontends
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		generator ports.ReplyGenerator,
		reg *prometheus.Registry,
	) *factory.FrontendFactory {
		return factory.NewFrontendFactory(cfg, logger, generator, metrics.Handler(reg))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FrontendFactory) ([]ports.Frontend, error) {
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideReplyService registers everything between the configuration and
// the reply generator. The container must already provide *config.Config,
// *zap.Logger and, through another provider, core.Observer.
func provideReplyService(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return err
	}

	// Register service options
	if err := container.Provide(func(cfg *config.Config) core.ServiceOptions {
		llm := cfg.GetLLM()
		return core.ServiceOptions{
			Timeout:     llm.Timeout,
			MaxBodySize: llm.MaxBodySize,
		}
	}); err != nil {
		return err
	}

	// Register reply service
	if err := container.Provide(core.NewReplyService); err != nil {
		return err
	}
	return container.Provide(func(s *core.ReplyService) ports.ReplyGenerator {
		return s
	})
}

// loadServerConfig loads and validates the daemon configuration
func loadServerConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

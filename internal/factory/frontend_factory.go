package factory

import (
	"fmt"
	"net/http"

	"github.com/mikey/llm-reply-generator/internal/adapters/frontend"
	"github.com/mikey/llm-reply-generator/internal/config"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/ports"
	"github.com/mikey/llm-reply-generator/internal/senderfilter"
	"go.uber.org/zap"
)

// FrontendFactory creates the daemon frontends based on configuration
type FrontendFactory struct {
	cfg            *config.Config
	logger         *zap.Logger
	generator      ports.ReplyGenerator
	metricsHandler http.Handler
}

// NewFrontendFactory creates a new frontend factory. metricsHandler may be nil.
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, generator ports.ReplyGenerator, metricsHandler http.Handler) *FrontendFactory {
	return &FrontendFactory{
		cfg:            cfg,
		logger:         logger,
		generator:      generator,
		metricsHandler: metricsHandler,
	}
}

// CreateFrontends creates every frontend listed in server.frontends
func (f *FrontendFactory) CreateFrontends() ([]ports.Frontend, error) {
	var frontends []ports.Frontend
	for _, name := range f.cfg.GetFrontends() {
		fe, err := f.CreateFrontend(name)
		if err != nil {
			return nil, err
		}
		frontends = append(frontends, fe)
	}
	if len(frontends) == 0 {
		return nil, core.NewConfigurationError("no frontends configured", nil)
	}
	return frontends, nil
}

// CreateFrontend creates a single frontend by name
func (f *FrontendFactory) CreateFrontend(name string) (ports.Frontend, error) {
	switch name {
	case "http":
		httpCfg := f.cfg.GetHTTP()
		opts := frontend.HTTPOptions{
			ListenAddress:   httpCfg.ListenAddress,
			ReadTimeout:     httpCfg.ReadTimeout,
			WriteTimeout:    httpCfg.WriteTimeout,
			MaxRequestBytes: httpCfg.MaxRequestBytes,
		}
		if metricsCfg := f.cfg.GetMetrics(); metricsCfg.Enabled {
			opts.MetricsPath = metricsCfg.Path
			opts.MetricsHandler = f.metricsHandler
		}
		return frontend.NewHTTPFrontend(f.generator, f.logger, opts), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		tone, err := core.ParseTone(smtpCfg.DefaultTone)
		if err != nil {
			return nil, core.NewConfigurationError("smtp.default_tone", err)
		}
		return frontend.NewSMTPFrontend(
			f.generator,
			senderfilter.NewChecker(smtpCfg.SkipDomains, f.logger),
			f.logger,
			frontend.SMTPOptions{
				ListenAddress: smtpCfg.ListenAddress,
				Domain:        smtpCfg.Domain,
				DefaultTone:   tone,
				Headers: frontend.DraftHeaders{
					Status:        smtpCfg.Headers.Status,
					Tone:          smtpCfg.Headers.Tone,
					Draft:         smtpCfg.Headers.Draft,
					Error:         smtpCfg.Headers.Error,
					RequestedTone: smtpCfg.Headers.RequestedTone,
				},
				RelayEnabled: smtpCfg.RelayEnabled,
				RelayAddress: smtpCfg.RelayAddress,
				RelayPort:    smtpCfg.RelayPort,
			},
		), nil
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("unsupported frontend: %q", name), nil)
	}
}

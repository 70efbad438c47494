package extraction

import (
	"log/slog"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/config"
)

// FromConfig returns the mock service when cfg.Mock is set and an HTTP client otherwise.
func FromConfig(cfg config.ExtractionConfig, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mock {
		logger.Info("using mock extraction service")
		return NewMock()
	}

	opts := []HTTPOption{WithLogger(logger)}
	if cfg.MaxResponseSize > 0 {
		opts = append(opts, WithMaxResponseSize(cfg.MaxResponseSize))
	}
	if cfg.APIKey != "" {
		opts = append(opts, WithAPIKey(cfg.APIKey))
	}
	logger.Info("using remote extraction service", "base_url", cfg.BaseURL, "timeout", cfg.Timeout)
	return NewHTTPClient(cfg.BaseURL, cfg.Timeout, opts...)
}

package memopack

import "go.uber.org/zap"

// Option is a function type for configuring a Client.
type Option func(*clientOptions)

type clientOptions struct {
	logger *zap.Logger
}

func applyOptions(opts []Option) clientOptions {
	options := clientOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithLogger sets the logger used by the client, its engine, and its
// indexer. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

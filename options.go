package viewsel

import (
	"log/slog"

	"github.com/hupe1980/viewsel/codec"
	"github.com/hupe1980/viewsel/loader"
)

type options struct {
	codec            codec.Codec
	compression      codec.Compression
	metricsCollector MetricsCollector
	logger           *Logger
	fetcher          loader.Fetcher
	loaderOptions    []func(*loader.Options)
	seed             int64
}

// Option configures Dataset construction behavior.
type Option func(*options)

// WithCodec configures the codec used for ranking snapshots.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression scheme for ranking snapshots.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithFetcher configures the payload fetcher used to load source images.
// Without a fetcher, samples carry camera parameters and indices only.
func WithFetcher(f loader.Fetcher, loaderOptFns ...func(*loader.Options)) Option {
	return func(o *options) {
		o.fetcher = f
		o.loaderOptions = loaderOptFns
	}
}

// WithSeed configures the global seed for per-query RNG derivation.
// Queries with identical (seed, target, secondary) produce identical
// selections; vary the seed per epoch to vary the draws.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      codec.CompressionZstd,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

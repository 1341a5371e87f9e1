package config

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the Config stored by NewContext. When none is
// present it loads defaults plus environment, ignoring a broken environment
// in favour of bare defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	if cfg, err := Load("", nil); err == nil {
		return cfg
	}
	return Defaults()
}

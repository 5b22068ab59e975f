// Copyright © 2024 The nxt authors

package cmd

import (
	"github.com/luthersystems/nxt/lint"
	"github.com/spf13/viper"
)

// Option configures an exported command factory (LintCommand, LSPCommand,
// ReplCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	builtins  []string
	analyzers []*lint.Analyzer
	viper     *viper.Viper
}

func newCmdConfig(opts ...Option) *cmdConfig {
	cfg := &cmdConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithBuiltins adds names that every checked expression may use without
// binding them, such as the arguments an embedder passes to the files it
// evaluates.
func WithBuiltins(names ...string) Option {
	return func(c *cmdConfig) { c.builtins = append(c.builtins, names...) }
}

// WithAnalyzers runs additional analyzers after the configured checks.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(c *cmdConfig) { c.analyzers = append(c.analyzers, analyzers...) }
}

// WithViper reads configuration from v instead of the global viper
// instance.
func WithViper(v *viper.Viper) Option {
	return func(c *cmdConfig) { c.viper = v }
}

func (c *cmdConfig) settings() *viper.Viper {
	if c.viper != nil {
		return c.viper
	}
	return viper.GetViper()
}

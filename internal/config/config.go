// Package config is a small generic config source/decoder pipeline,
// modeled on the donor repository's contrib/config package: a Source loads
// raw KeyValue pairs, a decoder unmarshals them onto a typed struct, and
// SIGHUP triggers a reload of any registered Watch observers.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/mason-ferrell/uproxy/internal/log"
)

// KeyValue is one loaded configuration blob.
type KeyValue struct {
	Key    string
	Value  []byte
	Format string // "yaml" or "" (raw)
}

// Source loads configuration bytes, e.g. from a file on disk.
type Source interface {
	Load() ([]*KeyValue, error)
}

// Observer is notified with the freshly reloaded config on SIGHUP.
type Observer[T any] func(*T)

// Config scans configuration onto a typed struct and watches for reloads.
type Config[T any] struct {
	source    Source
	stop      chan struct{}
	sig       chan os.Signal
	observers []Observer[T]
	target    *T
}

// Option configures a Config.
type Option func(*options)

type options struct {
	source Source
}

// WithSource sets the config source.
func WithSource(s Source) Option {
	return func(o *options) { o.source = s }
}

// New builds a Config and starts its SIGHUP watch loop.
func New[T any](opts ...Option) *Config[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Config[T]{
		source: o.source,
		stop:   make(chan struct{}),
		sig:    make(chan os.Signal, 1),
	}
	go c.tick()
	return c
}

// Scan loads the source (if any) and decodes it onto v.
func (c *Config[T]) Scan(v *T) error {
	c.target = v
	if c.source == nil {
		return nil
	}

	kvs, err := c.source.Load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: load: %w", err)
	}

	for _, kv := range kvs {
		if len(kv.Value) == 0 {
			continue
		}
		if err := yaml.Unmarshal(kv.Value, v); err != nil {
			return fmt.Errorf("config: unmarshal %s: %w", kv.Key, err)
		}
	}
	return nil
}

// Watch registers an observer invoked after a SIGHUP-triggered reload.
func (c *Config[T]) Watch(o Observer[T]) {
	c.observers = append(c.observers, o)
}

// Close stops the SIGHUP watch loop.
func (c *Config[T]) Close() error {
	close(c.stop)
	return nil
}

func (c *Config[T]) tick() {
	signal.Notify(c.sig, syscall.SIGHUP)
	defer signal.Stop(c.sig)

	for {
		select {
		case <-c.stop:
			return
		case <-c.sig:
			if c.target == nil {
				continue
			}
			log.Debugf("[config] received SIGHUP, reloading")
			if err := c.Scan(c.target); err != nil {
				log.Errorf("[config] reload failed: %v", err)
				continue
			}
			for _, observer := range c.observers {
				observer(c.target)
			}
		}
	}
}

package config

import "dario.cat/mergo"

// Bootstrap holds the ambient overrides a config.yaml may supply, layered
// over the hardcoded defaults below via mergo. The proxy's required
// arguments (listen port, cache TTL) remain CLI-only per spec §6; nothing
// here can override them.
type Bootstrap struct {
	CacheDir      string `yaml:"cache_dir"`
	BlockListPath string `yaml:"blocklist_path"`
	SweepInterval int    `yaml:"sweep_interval_seconds"`
	AdminAddr     string `yaml:"admin_addr"`
	Logger        Logger `yaml:"logger"`
}

type Logger struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	Caller     bool   `yaml:"caller"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// Defaults returns the baseline Bootstrap used when no config file (or an
// incomplete one) is supplied.
func Defaults() Bootstrap {
	return Bootstrap{
		CacheDir:      "./cache",
		BlockListPath: "./blocklist",
		SweepInterval: 0, // 0 means "use the CLI ttl"
		AdminAddr:     "",
		Logger: Logger{
			Level: "info",
		},
	}
}

// MergeDefaults fills zero-valued fields of bc from Defaults(), the way
// the donor repo merges bucket config onto global defaults with mergo.
func MergeDefaults(bc *Bootstrap) error {
	defaults := Defaults()
	return mergo.Merge(bc, defaults)
}

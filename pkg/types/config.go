// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ServerConfig holds settings for the HTTP listener.
type ServerConfig struct {
	// Host is the interface to bind (default 127.0.0.1; the API is local-only).
	Host string `json:"host" yaml:"host" mapstructure:"host"`

	// Port is the TCP port (default 23119).
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// BasePath prefixes every API route (default "/zotxt"). Empty mounts at root.
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// EnableCORS allows browser-based writing tools to call the API.
	EnableCORS bool `json:"enable_cors" yaml:"enable_cors" mapstructure:"enable_cors"`

	// EnableMetrics exposes Prometheus metrics on /metrics.
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics" mapstructure:"enable_metrics"`

	// Debug switches gin to debug mode.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// LibraryConfig holds settings for the local library store.
type LibraryConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// UserLibraryID is the id of the personal library; "all" requests
	// return the items of this library.
	UserLibraryID int64 `json:"user_library_id" yaml:"user_library_id" mapstructure:"user_library_id"`
}

// StylesConfig holds defaults for citation rendering.
type StylesConfig struct {
	// DefaultStyle is used when a request names no style.
	DefaultStyle string `json:"default_style" yaml:"default_style" mapstructure:"default_style"`

	// DefaultLocale is used when a request names no locale.
	DefaultLocale string `json:"default_locale" yaml:"default_locale" mapstructure:"default_locale"`
}

// ResolverConfig holds settings for key resolution.
type ResolverConfig struct {
	// MaxConcurrency bounds concurrent lookups per request (default 8).
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// ExportersConfig controls which optional exporters are installed.
type ExportersConfig struct {
	// BetterBibTeX installs the citation-key exporter and the richer
	// CSL-JSON exporter that carries citation keys.
	BetterBibTeX bool `json:"better_bibtex" yaml:"better_bibtex" mapstructure:"better_bibtex"`
}

// Config groups all configuration sections.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Library   LibraryConfig   `json:"library" yaml:"library" mapstructure:"library"`
	Styles    StylesConfig    `json:"styles" yaml:"styles" mapstructure:"styles"`
	Resolver  ResolverConfig  `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Exporters ExportersConfig `json:"exporters" yaml:"exporters" mapstructure:"exporters"`
}

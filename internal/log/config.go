package log

// Config controls the global logger.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Format is json or console. Defaults to console.
	Format string `conf:"format" yaml:"format" json:"format"`

	// Output is stdout, stderr or file. Defaults to stdout.
	Output string `conf:"output" yaml:"output" json:"output"`

	File FileConfig `conf:"file" yaml:"file" json:"file"`
}

// FileConfig configures rotated file output.
type FileConfig struct {
	Path       string `conf:"path" yaml:"path" json:"path"`
	MaxSize    int    `conf:"max_size" yaml:"max_size" json:"max_size"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `conf:"max_age" yaml:"max_age" json:"max_age"`
	Compress   bool   `conf:"compress" yaml:"compress" json:"compress"`
}

package logger

// Config configures a Logger.
type Config struct {
	// Level is the minimum level: debug, info, warn, error or fatal.
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is accepted for config compatibility; output is always JSON.
	Format      string   `env:"LOG_FORMAT" yaml:"format"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

const (
	// DefaultLevel is used when Config.Level is empty.
	DefaultLevel = "info"
	// DefaultFormat is used when Config.Format is empty.
	DefaultFormat = "json"
)

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}

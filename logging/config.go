package logging

type Config struct {
	EnabledSinks    []string       `yaml:"sinks"`
	MinimumSeverity Severity       `yaml:"minimumSeverity"`
	Fields          map[string]any `yaml:"fields"`
	JSON            JSONConfig     `yaml:"json"`
	Console         ConsoleConfig  `yaml:"console"`
}

type JSONConfig struct {
	FilePath string `yaml:"filePath"`
}

type ConsoleConfig struct {
	UseColor bool `yaml:"useColor"`
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:    []string{"console"},
		MinimumSeverity: SeverityInfo,
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}

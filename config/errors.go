package config

import "fmt"

// ConfigurationError reports an option outside its accepted range or format.
type ConfigurationError struct {
	Field    string
	Value    any
	Min, Max float64
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("config: %s = %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("config: %s = %v out of range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

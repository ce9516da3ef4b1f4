package httpclient

import "time"

// RetryOptions configures retry behavior for HTTP requests
type RetryOptions struct {
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	BaseBackoff       time.Duration `yaml:"base_backoff" json:"base_backoff"`
	LogPrefix         string        `yaml:"log_prefix" json:"log_prefix"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"` // Timeout for establishing connection
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`       // Total request timeout including reading response
}

// DefaultRetryOptions returns default retry options
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        3,
		BaseBackoff:       1000 * time.Millisecond,
		LogPrefix:         "HTTP",
		ConnectionTimeout: 10 * time.Second,
		RequestTimeout:    30 * time.Second,
	}
}

// ApplyDefaults fills zero fields from DefaultRetryOptions
func (o *RetryOptions) ApplyDefaults() {
	def := DefaultRetryOptions()
	if o.MaxRetries == 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.BaseBackoff == 0 {
		o.BaseBackoff = def.BaseBackoff
	}
	if o.LogPrefix == "" {
		o.LogPrefix = def.LogPrefix
	}
	if o.ConnectionTimeout == 0 {
		o.ConnectionTimeout = def.ConnectionTimeout
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = def.RequestTimeout
	}
}

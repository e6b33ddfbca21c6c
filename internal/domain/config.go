package domain

import "time"

// Configuration defaults. The base URL points at the service's preview host,
// the only one the wire surface has been observed on.
const (
	DefaultBaseURL         = "https://preview.pictor.art"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxPollAttempts = 60
	DefaultPollInterval    = 2 * time.Second
)

// ClientConfig is the static configuration consumed by the client. Values
// are read-only after construction; the only mutable session state (the
// cached token) lives in the provider's session object.
type ClientConfig struct {
	Token           string            // bearer authorization value, required
	Cookie          string            // session cookie attached to every request
	ProjectID       string            // explicit project id; auto-detected when empty
	BaseURL         string            // upstream base URL
	RequestTimeout  time.Duration     // per-call HTTP timeout
	MaxPollAttempts int               // polling attempt cap per job
	PollInterval    time.Duration     // sleep between polling attempts
	Verbose         bool              // enable diagnostic logging
	Headers         map[string]string // extra headers merged into every request
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
func (c *ClientConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxPollAttempts == 0 {
		c.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// Validate rejects configurations that cannot possibly authenticate.
func (c ClientConfig) Validate() error {
	if c.Token == "" {
		return NewError(KindAuthentication, "authorization token is required")
	}
	return nil
}

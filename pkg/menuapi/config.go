package menuapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/menumail/pkg/menu"
)

// Config holds vendor API settings.
type Config struct {
	BaseURL      string `env:"MENU_API_URL" envDefault:"https://bite-external-api.azure-api.net/extern/bite-application/location"`
	APIKey       string `env:"MENU_API_KEY"`
	APIKeyHeader string `env:"MENU_API_KEY_HEADER" envDefault:"Ocp-Apim-Subscription-Key"`
	LocationID   string `env:"MENU_API_LOCATION_ID" envDefault:"75204001"`
	DayListField string `env:"MENU_API_DAY_LIST_FIELD" envDefault:"OrderDays"`
	UserAgent    string `env:"MENU_API_USER_AGENT" envDefault:"menumail/1.0"`

	RequestTimeout time.Duration `env:"MENU_API_TIMEOUT" envDefault:"30s"`

	RetryBaseDelay     time.Duration `env:"MENU_API_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxElapsed    time.Duration `env:"MENU_API_RETRY_MAX_ELAPSED" envDefault:"1h"`
	RetryMaxDelay      time.Duration `env:"MENU_API_RETRY_MAX_DELAY" envDefault:"0s"`
	RetryJitterPercent uint64        `env:"MENU_API_RETRY_JITTER_PERCENT" envDefault:"0"`

	// RateLimit is the maximum number of requests per second. Zero disables limiting.
	RateLimit float64 `env:"MENU_API_RATE_LIMIT" envDefault:"0"`
}

// Policy builds the retry policy described by the config.
func (c Config) Policy() Policy {
	return Policy{
		BaseDelay:     c.RetryBaseDelay,
		MaxElapsed:    c.RetryMaxElapsed,
		MaxDelay:      c.RetryMaxDelay,
		JitterPercent: c.RetryJitterPercent,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "Ocp-Apim-Subscription-Key"
	}
	if c.DayListField == "" {
		c.DayListField = menu.DefaultDayListField
	}
	if c.UserAgent == "" {
		c.UserAgent = "menumail/1.0"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return c
}

// Validate reports missing or malformed settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q is not absolute", ErrInvalidConfig, c.BaseURL)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.LocationID) == "" {
		return fmt.Errorf("%w: location id is required", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

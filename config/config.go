// Package config loads service configuration from defaults, a YAML file and VORTEXWATCH_ environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mcuadros/go-defaults"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "VORTEXWATCH_"

// Config holds service configuration
type Config struct {
	// Server contains HTTP server settings
	Server Server `json:"server" koanf:"server"`
	// Pool sizes the shared worker pool
	Pool Pool `json:"pool" koanf:"pool"`
	// Timeouts bounds each assessment stage
	Timeouts Timeouts `json:"timeouts" koanf:"timeouts"`
	// Fetch configures document retrieval
	Fetch Fetch `json:"fetch" koanf:"fetch"`
	// Locator configures privacy link discovery
	Locator Locator `json:"locator" koanf:"locator"`
	// OpenAI configures the hosted assistant used for classification
	OpenAI OpenAI `json:"openai" koanf:"openai"`
	// Cohere configures alternative product suggestions
	Cohere Cohere `json:"cohere" koanf:"cohere"`
	// Search configures the web search used to resolve alternative websites
	Search Search `json:"search" koanf:"search"`
	// Cloudflare configures the optional rendering fallback for script-heavy policies
	Cloudflare Cloudflare `json:"cloudflare" koanf:"cloudflare"`
	// Slack configures optional unsafe-verdict notifications
	Slack Slack `json:"slack" koanf:"slack"`
}

// Server contains HTTP server settings
type Server struct {
	// Listen is the address the server binds to
	Listen string `json:"listen" koanf:"listen" default:":8080"`
	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `json:"readtimeout" koanf:"readtimeout" default:"30s"`
	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration `json:"writetimeout" koanf:"writetimeout" default:"120s"`
	// ShutdownGracePeriod is the time allowed for in-flight requests to finish on shutdown
	ShutdownGracePeriod time.Duration `json:"shutdowngraceperiod" koanf:"shutdowngraceperiod" default:"30s"`
	// MaxBodySize is the maximum request body size in bytes
	MaxBodySize int64 `json:"maxbodysize" koanf:"maxbodysize" default:"16384"`
	// AllowedOrigin is the CORS origin returned to callers
	AllowedOrigin string `json:"allowedorigin" koanf:"allowedorigin" default:"*"`
	// Metrics exposes Prometheus metrics on /metrics
	Metrics bool `json:"metrics" koanf:"metrics" default:"true"`
	// Debug enables debug logging
	Debug bool `json:"debug" koanf:"debug" default:"false"`
	// Pretty enables human readable logging output
	Pretty bool `json:"pretty" koanf:"pretty" default:"false"`
}

// Pool sizes the shared worker pool
type Pool struct {
	// Workers is the number of tasks run concurrently across all assessments
	Workers int `json:"workers" koanf:"workers" default:"5"`
}

// Timeouts bounds each assessment stage, queue time included
type Timeouts struct {
	// Locate bounds privacy link discovery
	Locate time.Duration `json:"locate" koanf:"locate" default:"15s"`
	// Classify bounds text extraction plus classification
	Classify time.Duration `json:"classify" koanf:"classify" default:"30s"`
	// Suggest bounds alternative name generation
	Suggest time.Duration `json:"suggest" koanf:"suggest" default:"15s"`
	// Resolve bounds alternative website resolution
	Resolve time.Duration `json:"resolve" koanf:"resolve" default:"15s"`
	// Notify bounds delivery of an unsafe-verdict notification
	Notify time.Duration `json:"notify" koanf:"notify" default:"10s"`
}

// Fetch configures document retrieval
type Fetch struct {
	// Timeout is the per-request fetch timeout
	Timeout time.Duration `json:"timeout" koanf:"timeout" default:"10s"`
	// MaxRedirects is the maximum redirect hops followed
	MaxRedirects int `json:"maxredirects" koanf:"maxredirects" default:"5"`
	// MaxBodySize is the maximum number of response bytes read
	MaxBodySize int64 `json:"maxbodysize" koanf:"maxbodysize" default:"2097152"`
	// UserAgent is sent with every fetch
	UserAgent string `json:"useragent" koanf:"useragent" default:"Mozilla/5.0 (compatible; VortexWatch/1.0)"`
}

// Locator configures privacy link discovery
type Locator struct {
	// Terms overrides the case-insensitive privacy terms matched against link text and attributes
	Terms []string `json:"terms" koanf:"terms"`
}

// OpenAI configures the hosted assistant used for classification
type OpenAI struct {
	// APIKey authenticates assistant requests
	APIKey string `json:"apikey" koanf:"apikey" sensitive:"true"`
	// AssistantID identifies the pre-configured classification assistant
	AssistantID string `json:"assistantid" koanf:"assistantid"`
	// BaseURL overrides the API endpoint
	BaseURL string `json:"baseurl" koanf:"baseurl" default:"https://api.openai.com/v1"`
	// RequestTimeout bounds each API request
	RequestTimeout time.Duration `json:"requesttimeout" koanf:"requesttimeout" default:"15s"`
	// PollInterval is the initial delay between run status checks
	PollInterval time.Duration `json:"pollinterval" koanf:"pollinterval" default:"500ms"`
	// PollMaxInterval caps the delay between run status checks
	PollMaxInterval time.Duration `json:"pollmaxinterval" koanf:"pollmaxinterval" default:"4s"`
	// PollTimeout is the ceiling on waiting for a single run
	PollTimeout time.Duration `json:"polltimeout" koanf:"polltimeout" default:"60s"`
	// MaxTextLength is the maximum number of characters of policy text sent for classification
	MaxTextLength int `json:"maxtextlength" koanf:"maxtextlength" default:"8000"`
}

// Cohere configures alternative product suggestions
type Cohere struct {
	// APIKey authenticates chat requests; alternatives are disabled when empty
	APIKey string `json:"apikey" koanf:"apikey" sensitive:"true"`
	// Model is the chat model used for suggestions
	Model string `json:"model" koanf:"model" default:"command-r-plus"`
	// BaseURL overrides the API endpoint
	BaseURL string `json:"baseurl" koanf:"baseurl" default:"https://api.cohere.com"`
	// RequestTimeout bounds each API request
	RequestTimeout time.Duration `json:"requesttimeout" koanf:"requesttimeout" default:"15s"`
}

// Search configures the web search used to resolve alternative websites
type Search struct {
	// BaseURL is the HTML search endpoint
	BaseURL string `json:"baseurl" koanf:"baseurl" default:"https://html.duckduckgo.com/html/"`
	// UserAgent is sent with search requests
	UserAgent string `json:"useragent" koanf:"useragent" default:"Mozilla/5.0 (compatible; VortexWatch/1.0)"`
	// RequestTimeout bounds each search request
	RequestTimeout time.Duration `json:"requesttimeout" koanf:"requesttimeout" default:"10s"`
	// Concurrency limits how many alternatives are resolved at once
	Concurrency int `json:"concurrency" koanf:"concurrency" default:"3"`
}

// Cloudflare configures the optional rendering fallback
type Cloudflare struct {
	// AccountID is the Cloudflare account identifier
	AccountID string `json:"accountid" koanf:"accountid"`
	// APIToken authenticates Browser Rendering requests
	APIToken string `json:"apitoken" koanf:"apitoken" sensitive:"true"`
	// RequestTimeout bounds each rendering request
	RequestTimeout time.Duration `json:"requesttimeout" koanf:"requesttimeout" default:"30s"`
	// NavigationTimeout is the page navigation budget passed to the renderer
	NavigationTimeout time.Duration `json:"navigationtimeout" koanf:"navigationtimeout" default:"20s"`
}

// Slack configures optional unsafe-verdict notifications
type Slack struct {
	// WebhookURL is the incoming webhook; notifications are disabled when empty
	WebhookURL string `json:"webhookurl" koanf:"webhookurl" sensitive:"true"`
	// Username overrides the bot display name
	Username string `json:"username" koanf:"username" default:"VortexWatch"`
	// IconEmoji overrides the bot icon
	IconEmoji string `json:"iconemoji" koanf:"iconemoji" default:":shield:"`
	// RequestTimeout bounds each webhook request
	RequestTimeout time.Duration `json:"requesttimeout" koanf:"requesttimeout" default:"10s"`
}

// Load builds the configuration from defaults, then the YAML file at cfgFile
// when present, then VORTEXWATCH_ environment variables
func Load(cfgFile *string) (*Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	conf := &Config{}
	defaults.SetDefaults(conf)

	k := koanf.New(".")

	if cfgFile != nil && *cfgFile != "" {
		if err := k.Load(file.Provider(*cfgFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrConfigFileLoad, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigEnvLoad, err)
	}

	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnmarshal, err)
	}

	return conf, nil
}

// envKey maps VORTEXWATCH_SERVER_LISTEN to server.listen
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

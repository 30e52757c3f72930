package container

import (
	"fmt"
	"strings"
	"time"
)

// Event bus transports.
const (
	EventBusMemory = "memory"
	EventBusRedis  = "redis"
)

// Options configures both binaries. humacli exposes every field as a flag
// and as a SERVICE_<NAME> environment variable.
type Options struct {
	Port      int    `default:"8888"  help:"Port to listen on"                              short:"p"`
	BaseURL   string `help:"Public base URL of short links, http://localhost:<port> when empty"`
	LogFormat string `default:"json"  help:"Log format: json or console"`
	LogLevel  string `default:"info"  help:"Minimum log level"`

	DatabaseURL string `help:"Postgres URL, in-memory stores when empty"`
	RedisAddr   string `help:"Redis address, enables the redirect cache and shared rate limits" short:"r"`
	EventBus    string `default:"memory" help:"Analytics transport: memory or redis"`
	CacheTTL    int    `default:"300"   help:"Redirect cache TTL in seconds"`

	JWTSecret           string `help:"HS256 secret of the auth provider's session tokens"`
	StripeSecretKey     string `help:"Stripe API key used to read checkout sessions"`
	StripeWebhookSecret string `help:"Stripe webhook signing secret"`
	SettleDelay         int    `default:"1000" help:"Milliseconds to wait before reading a completed checkout"`

	SMTPHost     string `help:"SMTP relay host, emails are only logged when empty"`
	SMTPPort     int    `default:"587"   help:"SMTP relay port"`
	SMTPUser     string `help:"SMTP user name"`
	SMTPPassword string `help:"SMTP password"`
	MailFrom     string `default:"linkmark <noreply@localhost>" help:"Sender address of outgoing email"`
}

// PublicURL returns BaseURL without a trailing slash.
func (o *Options) PublicURL() string {
	if o.BaseURL == "" {
		return fmt.Sprintf("http://localhost:%d", o.Port)
	}

	return strings.TrimRight(o.BaseURL, "/")
}

func (o *Options) cacheTTL() time.Duration {
	return time.Duration(o.CacheTTL) * time.Second
}

func (o *Options) settleDelay() time.Duration {
	return time.Duration(o.SettleDelay) * time.Millisecond
}

package email

import "fmt"

// Delivery drivers.
const (
	DriverPostmark = "postmark"
	DriverDev      = "dev"
)

// Config holds email service configuration.
// Postmark tokens are only needed with the postmark driver; the dev driver
// writes messages to DevDir instead of sending them.
type Config struct {
	Driver               string `env:"EMAIL_DRIVER" envDefault:"dev"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@authcore.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@authcore.dev"`
}

// NewSender returns the EmailSender selected by cfg.Driver.
func NewSender(cfg Config) (EmailSender, error) {
	switch cfg.Driver {
	case DriverPostmark:
		return NewPostmarkClient(cfg)
	case DriverDev, "":
		return NewDevSender(cfg.DevDir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

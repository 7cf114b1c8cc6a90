package types

import "time"

type StoreDriver string

const (
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMongo    StoreDriver = "mongo"
	StoreDriverMemory   StoreDriver = "memory"
)

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"5000"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Storage
	StoreDriver   StoreDriver `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL   string      `envconfig:"DATABASE_URL"`
	MongoURI      string      `envconfig:"MONGO_URI"`
	MongoDatabase string      `envconfig:"MONGO_DATABASE" default:"food-for-all"`

	// Identity token
	TokenSecret string        `envconfig:"TOKEN_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	// Auth Configuration
	CookieName string `envconfig:"COOKIE_NAME" default:"Token"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`

	// Listing query parameters
	QuantitySortParam string `envconfig:"QUANTITY_SORT_PARAM" default:"quantity"`
	ExpirySortParam   string `envconfig:"EXPIRY_SORT_PARAM" default:"Sort"`
	NameMatch         string `envconfig:"NAME_MATCH" default:"exact"`

	// Food images
	ImageBucket         string `envconfig:"IMAGE_BUCKET"`
	ImagePublicBaseURL  string `envconfig:"IMAGE_PUBLIC_BASE_URL"`
	ImageMaxUploadBytes int64  `envconfig:"IMAGE_MAX_UPLOAD_BYTES" default:"8388608"`

	// Donations
	StripeSecretKey  string `envconfig:"STRIPE_SECRET_KEY"`
	DonationCurrency string `envconfig:"DONATION_CURRENCY" default:"usd"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

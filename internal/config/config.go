package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Placeholder secrets that must never reach production. The starter .env
// ships with the first one; the rest show up in copy-pasted tutorials.
var placeholderSecrets = []string{
	"your-secret-key-change-this-in-production",
	"changeme",
	"secret",
}

type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type VNPay struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	IPNURL     string
}

type Config struct {
	AppEnv      string // "production" or anything else (treated as dev)
	Port        string
	AppURL      string
	DatabaseURL string

	JWTSecret string
	JWTExpiry time.Duration

	SMTP  SMTP
	VNPay VNPay

	KafkaBrokers []string
	ConsulAddr   string
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads the whole configuration from the environment. It never fails;
// Validate reports what is missing so main can decide between fatal and warn.
func Load() Config {
	cfg := Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		AppURL:      getEnv("NEXT_PUBLIC_APP_URL", "http://localhost:3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTExpiry:   getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		SMTP: SMTP{
			Host: os.Getenv("SMTP_HOST"),
			Port: getInt("SMTP_PORT", 587),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: getEnv("SMTP_FROM", "no-reply@mephuongthitheo.vn"),
		},
		VNPay: VNPay{
			TmnCode:    os.Getenv("VNPAY_TMN_CODE"),
			HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
			PayURL:     getEnv("VNPAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  os.Getenv("VNPAY_RETURN_URL"),
			IPNURL:     os.Getenv("VNPAY_IPN_URL"),
		},
		ConsulAddr: os.Getenv("CONSUL_HTTP_ADDR"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// Validate returns every configuration problem found. Production refuses to
// start on any of them; development only logs warnings.
func (c Config) Validate() []string {
	var problems []string

	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is not set")
	}
	switch {
	case c.JWTSecret == "":
		problems = append(problems, "JWT_SECRET is not set")
	case len(c.JWTSecret) < 32:
		problems = append(problems, "JWT_SECRET must be at least 32 characters")
	case isPlaceholder(c.JWTSecret):
		problems = append(problems, "JWT_SECRET is a placeholder value")
	}
	if c.SMTP.Host == "" || c.SMTP.User == "" || c.SMTP.Pass == "" {
		problems = append(problems, "SMTP_HOST/SMTP_USER/SMTP_PASS are not fully set")
	}
	if c.VNPay.TmnCode == "" || c.VNPay.HashSecret == "" {
		problems = append(problems, "VNPAY_TMN_CODE/VNPAY_HASH_SECRET are not set")
	}
	if c.VNPay.ReturnURL == "" {
		problems = append(problems, "VNPAY_RETURN_URL is not set")
	}
	return problems
}

func isPlaceholder(secret string) bool {
	for _, p := range placeholderSecrets {
		if secret == p {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

// getDuration accepts either Go duration syntax ("168h") or the day shorthand
// the original config used ("7d").
func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if strings.HasSuffix(val, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(val, "d"))
		if err != nil {
			return fallback
		}
		return time.Duration(days) * 24 * time.Hour
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

// MustValidate is the production boot path: it formats all problems into a
// single error so main can fail fast with everything that needs fixing.
func (c Config) MustValidate() error {
	problems := c.Validate()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		AppEnv:      "production",
		DatabaseURL: "postgres://localhost/mph",
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		SMTP:        SMTP{Host: "smtp.example.com", User: "mailer", Pass: "pw"},
		VNPay: VNPay{
			TmnCode:    "TESTTMN1",
			HashSecret: "secret-hash",
			ReturnURL:  "https://shop.example.com/payment/return",
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
	assert.NoError(t, validConfig().MustValidate())
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "short"
	problems := cfg.Validate()
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "at least 32 characters")
}

func TestValidateRejectsPlaceholderSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "your-secret-key-change-this-in-production"
	problems := cfg.Validate()
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "placeholder")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{}
	problems := cfg.Validate()
	assert.GreaterOrEqual(t, len(problems), 4)
	assert.Error(t, cfg.MustValidate())
}

func TestIsProduction(t *testing.T) {
	assert.True(t, Config{AppEnv: "production"}.IsProduction())
	assert.False(t, Config{AppEnv: "development"}.IsProduction())
	assert.False(t, Config{}.IsProduction())
}

func TestDurationDayShorthand(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "7d")
	assert.Equal(t, 7*24*time.Hour, getDuration("JWT_EXPIRES_IN", time.Hour))

	t.Setenv("JWT_EXPIRES_IN", "36h")
	assert.Equal(t, 36*time.Hour, getDuration("JWT_EXPIRES_IN", time.Hour))

	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")
	assert.Equal(t, time.Hour, getDuration("JWT_EXPIRES_IN", time.Hour))
}

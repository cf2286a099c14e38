package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Clinician is the fixed profile under which all artifacts are issued. The
// defaults come from the existing deployment; every field is overridable.
type Clinician struct {
	Name         string `mapstructure:"CLINICIAN_NAME"`
	Registration string `mapstructure:"CLINICIAN_REGISTRATION"`
	Address      string `mapstructure:"CLINICIAN_ADDRESS"`
	Phone        string `mapstructure:"CLINICIAN_PHONE"`
	Email        string `mapstructure:"CLINICIAN_EMAIL"`
}

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Session cookie lifetime in hours; bearer tokens use the same horizon.
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	JWTSecret       string `mapstructure:"AUTH_JWT_SECRET"`

	// Request body limits, human readable ("1M", "512K").
	BodyLimit   string `mapstructure:"BODY_LIMIT"`
	UploadLimit string `mapstructure:"UPLOAD_LIMIT"`

	// Brand rasters drawn onto every artifact. Missing or unreadable files
	// render without them.
	BrandLogoPath      string `mapstructure:"BRAND_LOGO_PATH"`
	BrandSignaturePath string `mapstructure:"BRAND_SIGNATURE_PATH"`

	Clinician Clinician `mapstructure:",squash"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("UPLOAD_LIMIT", "10M")
	v.SetDefault("BRAND_LOGO_PATH", "assets/branding/logo.jpg")
	v.SetDefault("BRAND_SIGNATURE_PATH", "assets/branding/doctor_signature.jpg")
	v.SetDefault("CLINICIAN_NAME", "Dr. Dimitris-Christos Zachariades")
	v.SetDefault("CLINICIAN_REGISTRATION", "GMC Registration: 6164496")
	v.SetDefault("CLINICIAN_ADDRESS", "15 Regent's Park Rd, London NW1 8XL, UK")
	v.SetDefault("CLINICIAN_PHONE", "+44 20 7123 4567")
	v.SetDefault("CLINICIAN_EMAIL", "dzachariades@nhs.net")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS", "SESSION_TTL_HOURS", "AUTH_JWT_SECRET",
		"BODY_LIMIT", "UPLOAD_LIMIT",
		"BRAND_LOGO_PATH", "BRAND_SIGNATURE_PATH",
		"CLINICIAN_NAME", "CLINICIAN_REGISTRATION", "CLINICIAN_ADDRESS",
		"CLINICIAN_PHONE", "CLINICIAN_EMAIL",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// Warnings reports configuration that runs but deserves a log line. The
// caller owns the logger, so Load stays silent itself.
func (c *Config) Warnings() []string {
	var out []string
	if c.IsDev() && c.JWTSecret == "" {
		out = append(out, "AUTH_JWT_SECRET is unset; bearer-token auth is disabled, only session cookies will be accepted")
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a bearer-token secret is required so programmatic clients can authenticate,
// and the clinician profile must be complete because every issued artifact
// embeds it.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.Clinician.Name == "" || c.Clinician.Registration == "" {
		return fmt.Errorf("CLINICIAN_NAME and CLINICIAN_REGISTRATION must be set")
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	return nil
}

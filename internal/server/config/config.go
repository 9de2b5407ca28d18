// Package config handles configuration for the server component, including
// defaults, an optional env file, environment variables, and command-line
// flags (applied in that order).
package config

import "time"

// Config holds runtime settings for the account service.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - SecretKey: HMAC secret for signing lifecycle tokens (HS256). Do not
//     use the development default in production.
//   - SignupTokenTTL / ResetTokenTTL: lifetimes of the signup confirmation
//     and password reset tokens.
//   - S3AccessKey / S3SecretKey / S3Bucket / S3Region / S3BaseEndpoint:
//     object storage settings; the endpoint override allows MinIO in dev.
//   - DirectoryKey: object key of the user directory inside the bucket.
//   - AdminOrg / SuperAdminOrg: organization identifiers mapped to the
//     Admin and SuperAdmin roles on sign-in.
//   - SMTPHost / SMTPPort / SMTPUser / SMTPPassword / FromEmail: outbound
//     mail relay; an empty host switches the mailer to log-only mode.
//   - AppBaseURL / APIBaseURL: link targets embedded in outbound mail.
//   - BcryptCost: password hashing cost factor.
//   - MaxWriteAttempts: bound on conditional-write retries per mutation.
type Config struct {
	Addr             string
	SecretKey        string
	SignupTokenTTL   time.Duration
	ResetTokenTTL    time.Duration
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	DirectoryKey     string
	AdminOrg         string
	SuperAdminOrg    string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	FromEmail        string
	AppBaseURL       string
	APIBaseURL       string
	BcryptCost       int
	MaxWriteAttempts int
}

// LoadDefaults populates Config with development defaults.
// NOTE: these values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.SignupTokenTTL = 24 * time.Hour
	c.ResetTokenTTL = 1 * time.Hour
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "directory"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.DirectoryKey = "dashboard_user/users.csv"
	c.AdminOrg = ""
	c.SuperAdminOrg = ""
	c.SMTPHost = ""
	c.SMTPPort = 587
	c.SMTPUser = ""
	c.SMTPPassword = ""
	c.FromEmail = "no-reply@localhost"
	c.AppBaseURL = "http://localhost:3000"
	c.APIBaseURL = "http://localhost:8080"
	c.BcryptCost = 10
	c.MaxWriteAttempts = 5
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (optionally seeded from an env file given with
// -c/-config) and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/solward/accountd/internal/flagx"
)

// parseEnv overlays Config fields from environment variables. If an env file
// path was supplied via -c/-config it is loaded first; values already
// present in the process environment win over the file.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		// Missing file is not fatal, the flags may still cover everything.
		_ = godotenv.Load(path)
	}

	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.SecretKey = getEnv("JWT_SECRET", cfg.SecretKey)
	cfg.SignupTokenTTL = getEnvDuration("SIGNUP_TOKEN_TTL", cfg.SignupTokenTTL)
	cfg.ResetTokenTTL = getEnvDuration("RESET_TOKEN_TTL", cfg.ResetTokenTTL)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", cfg.S3BaseEndpoint)
	cfg.DirectoryKey = getEnv("DIRECTORY_KEY", cfg.DirectoryKey)
	cfg.AdminOrg = getEnv("ADMIN_COMPANY", cfg.AdminOrg)
	cfg.SuperAdminOrg = getEnv("SUPERADMIN_COMPANY", cfg.SuperAdminOrg)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.FromEmail = getEnv("FROM_EMAIL", cfg.FromEmail)
	cfg.AppBaseURL = getEnv("APP_BASE_URL", cfg.AppBaseURL)
	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.APIBaseURL)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.MaxWriteAttempts = getEnvInt("MAX_WRITE_ATTEMPTS", cfg.MaxWriteAttempts)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

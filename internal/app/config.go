package app

import (
	"strings"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/utils"
)

type Config struct {
	Port          string
	JWTSecretKey  string
	AllowOrigins  []string
	TemplatesPath string
	RedisAddr     string
	RedisChannel  string
	SeedOnBoot    bool
	Environment   string
	Version       string
}

func LoadConfig(log *logger.Logger) Config {
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	return Config{
		Port:          utils.GetEnv("PORT", "8080", log),
		JWTSecretKey:  utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AllowOrigins:  splitCSV(origins),
		TemplatesPath: utils.GetEnv("POLICY_TEMPLATES_PATH", "config/templates.yaml", log),
		RedisAddr:     utils.GetEnv("REDIS_ADDR", "", log),
		RedisChannel:  utils.GetEnv("REDIS_EVENT_CHANNEL", "governance", log),
		SeedOnBoot:    utils.GetEnvAsBool("SEED_ON_BOOT", true, log),
		Environment:   utils.GetEnv("APP_ENV", "development", log),
		Version:       utils.GetEnv("APP_VERSION", "dev", log),
	}
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

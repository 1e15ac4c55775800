package app

import (
	redisclient "github.com/zypocare/governance-backend/internal/clients/redis"
	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/templates"
)

type Clients struct {
	EventBus redisclient.EventBus
	Registry *templates.Registry
}

// wireClients builds the optional outward connections. A missing redis or
// template file downgrades the feature instead of failing boot.
func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")

	var bus redisclient.EventBus
	if cfg.RedisAddr != "" {
		b, err := redisclient.NewEventBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Warn("Event bus unavailable, lifecycle events will not be published", "error", err)
		} else {
			bus = b
		}
	}

	registry, err := templates.LoadFromFile(log, cfg.TemplatesPath)
	if err != nil {
		log.Warn("Policy templates not loaded, payload shape validation disabled", "path", cfg.TemplatesPath, "error", err)
		registry = templates.NewRegistry(log)
	}

	return Clients{EventBus: bus, Registry: registry}
}

package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName     string
	HTTPPort        string
	PostgresDSN     string
	KafkaBrokers    []string
	EngagementTopic string
	ConsumerGroup   string

	EnableAchievementNotifications bool
	EnableCarbonNotifications      bool
	EnableRewardNotifications      bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "greenloop"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("ENGAGEMENT_TOPIC")
	if topic == "" {
		topic = "engagement.events"
	}

	group := os.Getenv("CONSUMER_GROUP")
	if group == "" {
		group = "greenloop-notifications-cg"
	}

	return Config{
		ServiceName:     service,
		HTTPPort:        port,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:    brokers,
		EngagementTopic: topic,
		ConsumerGroup:   group,

		EnableAchievementNotifications: envBool("ENABLE_ACHIEVEMENT_NOTIFICATIONS", true),
		EnableCarbonNotifications:      envBool("ENABLE_CARBON_NOTIFICATIONS", true),
		EnableRewardNotifications:      envBool("ENABLE_REWARD_NOTIFICATIONS", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

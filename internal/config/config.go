// internal/config/config.go
package config

import "os"

// Config collects everything the server and worker read from the
// environment. Load .env first (godotenv in each main) so local dev works
// the same way as deploys.
type Config struct {
	Port    string
	BaseURL string // public base URL, used to build unsubscribe links

	RabbitURL string

	// External one-shot trigger service (scheduler bridge).
	SchedulerURL    string
	SchedulerAPIKey string
	// Shared secret the trigger must echo back on the dispatch callback.
	SchedulerSecret string

	// Email delivery provider.
	ESPURL    string
	ESPAPIKey string
	FromEmail string
	FromName  string

	// HMAC secret for the stateless unsubscribe token codec.
	UnsubSecret string

	CompanyName string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		RabbitURL:       os.Getenv("RABBITMQ_URL"),
		SchedulerURL:    getEnv("SCHEDULER_URL", "http://localhost:9090"),
		SchedulerAPIKey: os.Getenv("SCHEDULER_API_KEY"),
		SchedulerSecret: os.Getenv("SCHEDULER_SECRET"),
		ESPURL:          getEnv("ESP_URL", "https://api.postmarkapp.com"),
		ESPAPIKey:       os.Getenv("ESP_API_KEY"),
		FromEmail:       getEnv("FROM_EMAIL", "no-reply@taxleopard.com"),
		FromName:        getEnv("FROM_NAME", "TaxLeopard"),
		UnsubSecret:     os.Getenv("UNSUB_SECRET"),
		CompanyName:     getEnv("COMPANY_NAME", "TaxLeopard"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

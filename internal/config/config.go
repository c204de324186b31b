// Package config loads runtime configuration from the environment.
//
// A .env file is loaded first (if present) so local development doesn't need
// a wall of exports; real environment variables always win because godotenv
// never overwrites existing ones.
package config

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// Config holds every knob the server reads. All optional integrations
// (social login, search keys, Twilio) degrade gracefully when left empty.
type Config struct {
	Port      string
	PublicURL string

	// storage
	DataDir     string // collection documents + sqlite file live here
	StoreDriver string // "jsonfile" (default) or "sqlite"
	UploadsDir  string
	StaticDir   string

	// sessions
	SessionSecret string

	// social login
	GoogleClientID     string
	MicrosoftClientID  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// search
	BingAPIKey    string
	YouTubeAPIKey string

	// SMS
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	Cors cors.Options
}

// Load reads the optional .env file and assembles the Config.
func Load(logger *slog.Logger) Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Info("no env file found, using environment only", slog.String("file", envFile))
	}

	return Config{
		Port:      getEnv("PORT", "8080"),
		PublicURL: getEnv("PUBLIC_URL", "http://localhost:8080"),

		DataDir:     getEnv("DATA_DIR", "data"),
		StoreDriver: getEnv("STORE_DRIVER", "jsonfile"),
		UploadsDir:  getEnv("UPLOADS_DIR", "uploads"),
		StaticDir:   getEnv("STATIC_DIR", "public"),

		SessionSecret: getEnv("SESSION_SECRET", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		MicrosoftClientID:  getEnv("MS_CLIENT_ID", ""),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", ""),

		BingAPIKey:    getEnv("BING_API_KEY", ""),
		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),

		TwilioSID:   getEnv("TWILIO_SID", ""),
		TwilioToken: getEnv("TWILIO_TOKEN", ""),
		TwilioFrom:  getEnv("TWILIO_FROM", ""),

		Cors: corsOptions(),
	}
}

// getEnv returns the variable's value or the fallback when unset.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// corsOptions allows the local dev frontends. Credentials must be allowed
// because the session travels in a cookie.
func corsOptions() cors.Options {
	origins := []string{"http://localhost:5173", "http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		origins = append(origins, extra)
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	GatewayApiURL    string // Payment gateway base URL
	GatewayKeyID     string // Public key id handed to checkout clients
	GatewaySecretKey string // Secret used for order auth and signature verification
	GatewayTimeoutMs int

	EmailSender string
	Password    string // SMTP Password

	AssessmentPassPercent int // Minimum score percent to pass an assessment
	ReviewProgressPercent int // Minimum course progress before a review is allowed
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		GatewayApiURL:    getEnv("GATEWAY_API_URL", "https://api.razorpay.com/v1"),
		GatewayKeyID:     getEnv("GATEWAY_KEY_ID", "key_test_placeholder"),
		GatewaySecretKey: getEnv("GATEWAY_SECRET_KEY", "secret_test_placeholder"),
		GatewayTimeoutMs: getEnvInt("GATEWAY_TIMEOUT_MS", 10000),

		EmailSender: getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:    getEnv("PASSWORD", "defaultSecret"),

		AssessmentPassPercent: getEnvInt("ASSESSMENT_PASS_PERCENT", 70),
		ReviewProgressPercent: getEnvInt("REVIEW_PROGRESS_PERCENT", 50),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.GatewaySecretKey == "secret_test_placeholder" {
		log.Println("Warning: Using placeholder GATEWAY_SECRET_KEY. Payment verification will fail.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

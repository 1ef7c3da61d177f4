package config

import (
	"fmt"
	"os"
	"strconv"
)

// SNSTopics holds the outbound topic ARNs, one per notification kind.
type SNSTopics struct {
	GroupCreated          string
	MeetingCreated        string
	UserAddedToGroup      string
	UserRemovedFromGroup  string
	UserAddedAsFriend     string
	UserRemovedAsFriend   string
	FriendMessageCreated  string
	GroupMessageCreated   string
	MeetingMessageCreated string
	FriendMessageUpdated  string
	GroupMessageUpdated   string
	MeetingMessageUpdated string
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	GSI1IndexName string // by user, all conversations, most recent first
	GSI2IndexName string // by user and conversation type
	GSI3IndexName string // by user, meetings by due date

	// Messaging
	Topics SNSTopics

	// Storage
	MessageBucket  string
	UploadURLTTL   int // seconds
	DownloadURLTTL int // seconds

	// Search
	OpenSearchEndpoint string
	OpenSearchIndex    string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTable: getEnv("TABLE_NAME", "converse-core"),
		GSI1IndexName: getEnv("GSI1_INDEX_NAME", "gsi1"),
		GSI2IndexName: getEnv("GSI2_INDEX_NAME", "gsi2"),
		GSI3IndexName: getEnv("GSI3_INDEX_NAME", "gsi3"),

		Topics: SNSTopics{
			GroupCreated:          getEnv("GROUP_CREATED_TOPIC_ARN", ""),
			MeetingCreated:        getEnv("MEETING_CREATED_TOPIC_ARN", ""),
			UserAddedToGroup:      getEnv("USER_ADDED_TO_GROUP_TOPIC_ARN", ""),
			UserRemovedFromGroup:  getEnv("USER_REMOVED_FROM_GROUP_TOPIC_ARN", ""),
			UserAddedAsFriend:     getEnv("USER_ADDED_AS_FRIEND_TOPIC_ARN", ""),
			UserRemovedAsFriend:   getEnv("USER_REMOVED_AS_FRIEND_TOPIC_ARN", ""),
			FriendMessageCreated:  getEnv("FRIEND_MESSAGE_CREATED_TOPIC_ARN", ""),
			GroupMessageCreated:   getEnv("GROUP_MESSAGE_CREATED_TOPIC_ARN", ""),
			MeetingMessageCreated: getEnv("MEETING_MESSAGE_CREATED_TOPIC_ARN", ""),
			FriendMessageUpdated:  getEnv("FRIEND_MESSAGE_UPDATED_TOPIC_ARN", ""),
			GroupMessageUpdated:   getEnv("GROUP_MESSAGE_UPDATED_TOPIC_ARN", ""),
			MeetingMessageUpdated: getEnv("MEETING_MESSAGE_UPDATED_TOPIC_ARN", ""),
		},

		MessageBucket:  getEnv("MESSAGE_BUCKET", "converse-message-media"),
		UploadURLTTL:   getEnvInt("UPLOAD_URL_TTL", 900),
		DownloadURLTTL: getEnvInt("DOWNLOAD_URL_TTL", 3600),

		OpenSearchEndpoint: getEnv("OPENSEARCH_ENDPOINT", ""),
		OpenSearchIndex:    getEnv("OPENSEARCH_INDEX", "conversations"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "converse-backend"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.MessageBucket == "" {
			return fmt.Errorf("MESSAGE_BUCKET is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     int
	LogLevel string
	Env      string
	DB       DBConfig
	Kafka    KafkaConfig
	Decision DecisionConfig
	Gesture  GestureConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds the Kafka topics and broker addresses
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	IncomingTopic string
	ConsumerGroup string
}

// DecisionConfig holds the decision window defaults. The list surface gives
// staff 600 ticks (60s) to act on a fresh order, the detail surface 150 ticks
// (15s); ticks are 100ms for smooth countdown-bar animation.
type DecisionConfig struct {
	ListTicks    int
	DetailTicks  int
	TickInterval time.Duration
}

// GestureConfig holds the slide-to-accept control geometry in pixels and the
// commit threshold as a fraction of the handle's travel range.
type GestureConfig struct {
	TrackWidth      float64
	HandleWidth     float64
	CommitThreshold float64
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64)), 64)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

// Load reads the configuration from environment variables and returns a Config struct.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	listTicks, err := getEnvInt("LIST_DECISION_TICKS", 600)
	if err != nil {
		return nil, err
	}

	detailTicks, err := getEnvInt("DETAIL_DECISION_TICKS", 150)
	if err != nil {
		return nil, err
	}

	tickIntervalMs, err := getEnvInt("TICK_INTERVAL_MS", 100)
	if err != nil {
		return nil, err
	}

	trackWidth, err := getEnvFloat("GESTURE_TRACK_WIDTH", 140)
	if err != nil {
		return nil, err
	}

	handleWidth, err := getEnvFloat("GESTURE_HANDLE_WIDTH", 40)
	if err != nil {
		return nil, err
	}

	commitThreshold, err := getEnvFloat("GESTURE_COMMIT_THRESHOLD", 0.7)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "orderdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "orderdesk.order-events"),
			IncomingTopic: getEnv("KAFKA_INCOMING_TOPIC", "orderdesk.incoming-orders"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "orderdesk"),
		},
		Decision: DecisionConfig{
			ListTicks:    listTicks,
			DetailTicks:  detailTicks,
			TickInterval: time.Duration(tickIntervalMs) * time.Millisecond,
		},
		Gesture: GestureConfig{
			TrackWidth:      trackWidth,
			HandleWidth:     handleWidth,
			CommitThreshold: commitThreshold,
		},
	}, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

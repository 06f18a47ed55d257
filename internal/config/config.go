package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every backing-store connection plus server, generator and
// logging settings. Values come from the YAML file first, then environment
// overrides via the env tags.
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Postgres struct {
		Host          string `yaml:"host" env:"POSTGRES_HOST"`
		Port          string `yaml:"port" env:"POSTGRES_PORT"`
		User          string `yaml:"user" env:"POSTGRES_USER"`
		Password      string `yaml:"password" env:"POSTGRES_PASSWORD"`
		DBName        string `yaml:"dbname" env:"POSTGRES_DB"`
		SSLMode       string `yaml:"sslmode" env:"POSTGRES_SSLMODE"`
		MaxConns      int    `yaml:"max_conns" env:"POSTGRES_MAX_CONNS"`
		MigrationsDir string `yaml:"migrations_dir" env:"POSTGRES_MIGRATIONS_DIR"`
	} `yaml:"postgres"`

	Mongo struct {
		URI    string `yaml:"uri" env:"MONGO_URI"`
		DBName string `yaml:"dbname" env:"MONGO_DB"`
	} `yaml:"mongo"`

	Neo4j struct {
		URI      string `yaml:"uri" env:"NEO4J_URI"`
		User     string `yaml:"user" env:"NEO4J_USER"`
		Password string `yaml:"password" env:"NEO4J_PASSWORD"`
	} `yaml:"neo4j"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Elastic struct {
		Addresses []string `yaml:"addresses" env:"ELASTIC_ADDRESSES"`
		User      string   `yaml:"user" env:"ELASTIC_USER"`
		Password  string   `yaml:"password" env:"ELASTIC_PASSWORD"`
	} `yaml:"elastic"`

	Generator struct {
		Universities        int     `yaml:"universities" env:"GENERATOR_UNIVERSITIES"`
		Institutes          int     `yaml:"institutes" env:"GENERATOR_INSTITUTES"`
		Departments         int     `yaml:"departments" env:"GENERATOR_DEPARTMENTS"`
		Specialities        int     `yaml:"specialities" env:"GENERATOR_SPECIALITIES"`
		Groups              int     `yaml:"groups" env:"GENERATOR_GROUPS"`
		Students            int     `yaml:"students" env:"GENERATOR_STUDENTS"`
		Courses             int     `yaml:"courses" env:"GENERATOR_COURSES"`
		SchedulesPerLecture int     `yaml:"schedules_per_lecture" env:"GENERATOR_SCHEDULES_PER_LECTURE"`
		PresenceProbability float64 `yaml:"presence_probability" env:"GENERATOR_PRESENCE_PROBABILITY"`
	} `yaml:"generator"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults covers a local docker-compose deployment of all five stores.
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Postgres.Host = "localhost"
	config.Postgres.Port = "5432"
	config.Postgres.User = "postgres"
	config.Postgres.Password = "postgres"
	config.Postgres.DBName = "unifed"
	config.Postgres.SSLMode = "disable"
	config.Postgres.MaxConns = 20
	config.Postgres.MigrationsDir = "migrations"

	config.Mongo.URI = "mongodb://localhost:27017"
	config.Mongo.DBName = "unifed"

	config.Neo4j.URI = "neo4j://localhost:7687"
	config.Neo4j.User = "neo4j"
	config.Neo4j.Password = "neo4j"

	config.Redis.Addr = "localhost:6379"

	config.Elastic.Addresses = []string{"http://localhost:9200"}

	config.Generator.Universities = 3
	config.Generator.Institutes = 12
	config.Generator.Departments = 40
	config.Generator.Specialities = 30
	config.Generator.Groups = 60
	config.Generator.Students = 600
	config.Generator.Courses = 50
	config.Generator.SchedulesPerLecture = 4
	config.Generator.PresenceProbability = 0.6

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is usable.
func validateConfig(config *Config) error {
	if config.Postgres.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if config.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if config.Neo4j.URI == "" {
		return fmt.Errorf("neo4j uri is required")
	}
	if config.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if len(config.Elastic.Addresses) == 0 {
		return fmt.Errorf("at least one elastic address is required")
	}
	if p := config.Generator.PresenceProbability; p < 0 || p > 1 {
		return fmt.Errorf("generator presence probability must be within [0, 1], got %v", p)
	}
	if config.Generator.Students < 0 || config.Generator.Groups <= 0 && config.Generator.Students > 0 {
		return fmt.Errorf("generator needs at least one group when students are requested")
	}
	return nil
}

// GetPostgresConnectionString returns the postgres connection string.
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Postgres.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value.
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a
// default value.
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	switch strings.ToLower(valueStr) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

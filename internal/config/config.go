package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Training TrainingConfig `mapstructure:"training"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// TrainingConfig carries the closed set of training-type labels. The order
// here is the column order of the weekly report, and assignment creation
// validates against this list (case-insensitively). Operators edit the config
// file, not code.
type TrainingConfig struct {
	Types []string `mapstructure:"types"`
}

// RankingConfig lists user IDs (hex) excluded from the leaderboard,
// e.g. coach test accounts.
type RankingConfig struct {
	ExcludedUserIDs []string `mapstructure:"excluded_user_ids"`
}

// defaultTrainingTypes is the club's standard menu, used when the config file
// does not override it.
var defaultTrainingTypes = []string{
	"EASY RUN ZONA 2",
	"LONGRUN",
	"MEDIUM RUN (SPEED)",
	"EASY RUN (EZ)",
	"Strenght session / Running Drills",
	"FARTLEK RUN ( SPEED )",
	"INTERVAL RUN ( SPEED )",
	"RACE",
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variable handling, e.g. server.address -> SERVER_ADDRESS
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Defaults
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "mtr_training")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("training.types", defaultTrainingTypes)
	viper.SetDefault("ranking.excluded_user_ids", []string{})

	err = viper.ReadInConfig()
	// Config file is optional; env vars and defaults may be enough.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}

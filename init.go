package pricealert

import (
	"os"
	"strconv"

	"github.com/raykavin/pricealert/pkg/logger/logrus"
	"github.com/raykavin/pricealert/pkg/logger/zerolog"
)

const (
	// Default configuration values
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
	defaultLogDriver     = "zerolog"
)

// Environment variable names
const (
	envLogLevel      = "PRICEALERT_LOG_LEVEL"
	envLogTimeFormat = "PRICEALERT_LOG_TIME_FORMAT"
	envLogColor      = "PRICEALERT_LOG_COLOR"
	envLogJSON       = "PRICEALERT_LOG_JSON"
	envLogDriver     = "PRICEALERT_LOG_DRIVER"
)

func init() {
	if err := initLogger(); err != nil {
		panic(err)
	}
}

// initLogger sets DefaultLog from environment variables
func initLogger() error {
	logLevel := getEnvWithDefault(envLogLevel, defaultLogLevel)
	logTimeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return err
	}

	if getEnvWithDefault(envLogDriver, defaultLogDriver) == "logrus" {
		DefaultLog, err = logrus.New(logLevel, logJSON, os.Stdout)
		return err
	}

	DefaultLog, err = zerolog.New(logLevel, logTimeFormat, logColored, logJSON)
	return err
}

// getEnvWithDefault returns the value of the environment variable or the default if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}

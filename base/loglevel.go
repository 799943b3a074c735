package base

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relex/sqldb-logging/util"
	"gopkg.in/yaml.v3"
)

// LogLevel is the severity rank of a log record. Higher is more severe.
//
// Any integer is a valid rank; the named constants are the standard ones
type LogLevel int

// Standard levels
const (
	NOTSET   LogLevel = 0
	DEBUG    LogLevel = 10
	INFO     LogLevel = 20
	WARNING  LogLevel = 30
	ERROR    LogLevel = 40
	CRITICAL LogLevel = 50
)

var levelNames = map[LogLevel]string{
	NOTSET:   "NOTSET",
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

var levelsByName = map[string]LogLevel{
	"NOTSET":   NOTSET,
	"DEBUG":    DEBUG,
	"INFO":     INFO,
	"WARN":     WARNING,
	"WARNING":  WARNING,
	"ERROR":    ERROR,
	"FATAL":    CRITICAL,
	"CRITICAL": CRITICAL,
}

// String returns the level name, or "Level N" for a non-standard rank
func (level LogLevel) String() string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return fmt.Sprintf("Level %d", int(level))
}

// ParseLogLevel parses a level name (case-insensitive) or a numeric rank
func ParseLogLevel(text string) (LogLevel, error) {
	trimmed := strings.TrimSpace(text)
	if level, ok := levelsByName[strings.ToUpper(trimmed)]; ok {
		return level, nil
	}
	rank, err := strconv.Atoi(trimmed)
	if err != nil {
		return NOTSET, fmt.Errorf("invalid log level '%s'", text)
	}
	return LogLevel(rank), nil
}

// MarshalYAML exports the level as its name
func (level LogLevel) MarshalYAML() (interface{}, error) {
	if name, ok := levelNames[level]; ok {
		return name, nil
	}
	return int(level), nil
}

// UnmarshalYAML accepts either a level name or a numeric rank
func (level *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseLogLevel(value.Value)
	if err != nil {
		return util.NewYamlError(value, err.Error())
	}
	*level = parsed
	return nil
}

// Package config builds the executor's immutable configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"javaexec/internal/sandbox/profile"
	"javaexec/internal/sandbox/source"
	"javaexec/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimeoutSeconds = 10
	defaultMemoryLimitMB  = 256
	defaultMaxOutputBytes = 64 * 1024
)

// Environment variable names.
const (
	EnvExecutionTimeout = "EXECUTION_TIMEOUT"
	EnvMemoryLimitMB    = "MEMORY_LIMIT_MB"
	EnvEntryPointPolicy = "ENTRY_POINT_POLICY"
	EnvWorkRoot         = "WORK_ROOT"
	EnvMaxOutputBytes   = "MAX_OUTPUT_BYTES"
	EnvCompileCommand   = "COMPILE_COMMAND"
	EnvRunCommand       = "RUN_COMMAND"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvLogOutput        = "LOG_OUTPUT"
)

// Config is read once at startup and passed by value; nothing mutates it afterwards.
type Config struct {
	// ExecutionTimeout bounds each phase (compile, run) independently.
	ExecutionTimeout time.Duration
	// MemoryLimitMB is handed to the runtime as a best-effort heap ceiling.
	MemoryLimitMB    int
	EntryPointPolicy source.EntryPointPolicy
	// WorkRoot is where workspaces are created; empty means os.TempDir.
	WorkRoot       string
	MaxOutputBytes int64
	Toolchain      profile.Toolchain
	Logger         logger.Config
}

// fileConfig is the YAML shape of Config.
type fileConfig struct {
	ExecutionTimeout int               `yaml:"executionTimeout"`
	MemoryLimitMB    int               `yaml:"memoryLimitMB"`
	EntryPointPolicy string            `yaml:"entryPointPolicy"`
	WorkRoot         string            `yaml:"workRoot"`
	MaxOutputBytes   int64             `yaml:"maxOutputBytes"`
	Toolchain        profile.Toolchain `yaml:"toolchain"`
	Logger           logger.Config     `yaml:"logger"`
}

// LookupFunc resolves an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ExecutionTimeout: defaultTimeoutSeconds * time.Second,
		MemoryLimitMB:    defaultMemoryLimitMB,
		EntryPointPolicy: source.PolicyAutoWrap,
		MaxOutputBytes:   defaultMaxOutputBytes,
		Toolchain:        profile.DefaultToolchain(),
		Logger:           logger.Config{Level: "warn", Format: "json", OutputPath: "stderr"},
	}
}

// Load layers defaults, the optional YAML file at path, then the environment.
func Load(path string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	fc := fileConfig{}
	if path != "" {
		if err := loadYAML(path, &fc); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&fc, lookup); err != nil {
		return Config{}, err
	}
	return build(fc)
}

// Marshal renders cfg in the YAML layout read by Load.
func Marshal(cfg Config) ([]byte, error) {
	fc := fileConfig{
		ExecutionTimeout: int(cfg.ExecutionTimeout / time.Second),
		MemoryLimitMB:    cfg.MemoryLimitMB,
		EntryPointPolicy: string(cfg.EntryPointPolicy),
		WorkRoot:         cfg.WorkRoot,
		MaxOutputBytes:   cfg.MaxOutputBytes,
		Toolchain:        cfg.Toolchain,
		Logger:           cfg.Logger,
	}
	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("marshal config failed: %w", err)
	}
	return data, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func applyEnv(fc *fileConfig, lookup LookupFunc) error {
	if err := envInt(lookup, EnvExecutionTimeout, &fc.ExecutionTimeout); err != nil {
		return err
	}
	if err := envInt(lookup, EnvMemoryLimitMB, &fc.MemoryLimitMB); err != nil {
		return err
	}
	var maxOutput int
	if err := envInt(lookup, EnvMaxOutputBytes, &maxOutput); err != nil {
		return err
	}
	if maxOutput != 0 {
		fc.MaxOutputBytes = int64(maxOutput)
	}
	envString(lookup, EnvEntryPointPolicy, &fc.EntryPointPolicy)
	envString(lookup, EnvWorkRoot, &fc.WorkRoot)
	envString(lookup, EnvCompileCommand, &fc.Toolchain.CompileCmdTpl)
	envString(lookup, EnvRunCommand, &fc.Toolchain.RunCmdTpl)
	envString(lookup, EnvLogLevel, &fc.Logger.Level)
	envString(lookup, EnvLogFormat, &fc.Logger.Format)
	envString(lookup, EnvLogOutput, &fc.Logger.OutputPath)
	return nil
}

func build(fc fileConfig) (Config, error) {
	cfg := Default()
	if fc.ExecutionTimeout != 0 {
		if fc.ExecutionTimeout < 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %d", EnvExecutionTimeout, fc.ExecutionTimeout)
		}
		cfg.ExecutionTimeout = time.Duration(fc.ExecutionTimeout) * time.Second
	}
	if fc.MemoryLimitMB != 0 {
		if fc.MemoryLimitMB < 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %d", EnvMemoryLimitMB, fc.MemoryLimitMB)
		}
		cfg.MemoryLimitMB = fc.MemoryLimitMB
	}
	if fc.MaxOutputBytes != 0 {
		if fc.MaxOutputBytes < 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %d", EnvMaxOutputBytes, fc.MaxOutputBytes)
		}
		cfg.MaxOutputBytes = fc.MaxOutputBytes
	}
	policy, err := source.ParsePolicy(fc.EntryPointPolicy)
	if err != nil {
		return Config{}, err
	}
	cfg.EntryPointPolicy = policy
	cfg.WorkRoot = fc.WorkRoot
	cfg.Toolchain = fc.Toolchain.WithDefaults()
	if fc.Logger.Level != "" {
		cfg.Logger.Level = fc.Logger.Level
	}
	if fc.Logger.Format != "" {
		cfg.Logger.Format = fc.Logger.Format
	}
	if fc.Logger.OutputPath != "" {
		cfg.Logger.OutputPath = fc.Logger.OutputPath
	}
	// stdout carries exactly one result payload.
	if strings.EqualFold(cfg.Logger.OutputPath, "stdout") {
		return Config{}, fmt.Errorf("%s must not be stdout", EnvLogOutput)
	}
	return cfg, nil
}

func envInt(lookup LookupFunc, key string, out *int) error {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %d", key, val)
	}
	*out = val
	return nil
}

func envString(lookup LookupFunc, key string, out *string) {
	if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
		*out = strings.TrimSpace(raw)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"javaexec/internal/sandbox/profile"
	"javaexec/internal/sandbox/source"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", lookupFrom(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ExecutionTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.ExecutionTimeout)
	}
	if cfg.MemoryLimitMB != 256 {
		t.Fatalf("unexpected memory limit: %d", cfg.MemoryLimitMB)
	}
	if cfg.EntryPointPolicy != source.PolicyAutoWrap {
		t.Fatalf("unexpected policy: %q", cfg.EntryPointPolicy)
	}
	if cfg.MaxOutputBytes != 64*1024 {
		t.Fatalf("unexpected output limit: %d", cfg.MaxOutputBytes)
	}
	if cfg.Toolchain.CompileCmdTpl != profile.DefaultCompileCmdTpl || cfg.Toolchain.RunCmdTpl != profile.DefaultRunCmdTpl {
		t.Fatalf("unexpected toolchain: %+v", cfg.Toolchain)
	}
	if cfg.Logger.Level != "warn" || cfg.Logger.OutputPath != "stderr" {
		t.Fatalf("unexpected logger config: %+v", cfg.Logger)
	}
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := Load("", lookupFrom(map[string]string{
		EnvExecutionTimeout: " 3 ",
		EnvMemoryLimitMB:    "128",
		EnvEntryPointPolicy: "strict",
		EnvWorkRoot:         "/var/tmp/exec",
		EnvMaxOutputBytes:   "1024",
		EnvRunCommand:       "java -cp {workdir} {class}",
		EnvLogLevel:         "debug",
		EnvLogFormat:        "console",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ExecutionTimeout != 3*time.Second || cfg.MemoryLimitMB != 128 {
		t.Fatalf("limits not applied: %+v", cfg)
	}
	if cfg.EntryPointPolicy != source.PolicyStrict || cfg.WorkRoot != "/var/tmp/exec" {
		t.Fatalf("policy or work root not applied: %+v", cfg)
	}
	if cfg.MaxOutputBytes != 1024 {
		t.Fatalf("output limit not applied: %d", cfg.MaxOutputBytes)
	}
	if cfg.Toolchain.RunCmdTpl != "java -cp {workdir} {class}" || cfg.Toolchain.CompileCmdTpl != profile.DefaultCompileCmdTpl {
		t.Fatalf("toolchain not merged: %+v", cfg.Toolchain)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "console" {
		t.Fatalf("logger not applied: %+v", cfg.Logger)
	}
}

func TestLoadBlankEnvironmentKeepsDefaults(t *testing.T) {
	cfg, err := Load("", lookupFrom(map[string]string{
		EnvExecutionTimeout: "",
		EnvEntryPointPolicy: "  ",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ExecutionTimeout != 10*time.Second || cfg.EntryPointPolicy != source.PolicyAutoWrap {
		t.Fatalf("blank values should keep defaults: %+v", cfg)
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non numeric timeout", env: map[string]string{EnvExecutionTimeout: "ten"}},
		{name: "zero timeout", env: map[string]string{EnvExecutionTimeout: "0"}},
		{name: "negative memory", env: map[string]string{EnvMemoryLimitMB: "-1"}},
		{name: "bad output limit", env: map[string]string{EnvMaxOutputBytes: "lots"}},
		{name: "unknown policy", env: map[string]string{EnvEntryPointPolicy: "loose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load("", lookupFrom(tt.env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadYAMLWithEnvironmentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "executor.yaml")
	content := `executionTimeout: 5
memoryLimitMB: 512
entryPointPolicy: strict
maxOutputBytes: 2048
toolchain:
  compileCmd: "javac -d {workdir} {src}"
  env:
    - JAVA_TOOL_OPTIONS=-Xss1m
logger:
  level: info
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, lookupFrom(map[string]string{EnvExecutionTimeout: "7"}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ExecutionTimeout != 7*time.Second {
		t.Fatalf("environment should override file: %v", cfg.ExecutionTimeout)
	}
	if cfg.MemoryLimitMB != 512 || cfg.MaxOutputBytes != 2048 || cfg.EntryPointPolicy != source.PolicyStrict {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Toolchain.CompileCmdTpl != "javac -d {workdir} {src}" || cfg.Toolchain.RunCmdTpl != profile.DefaultRunCmdTpl {
		t.Fatalf("unexpected toolchain: %+v", cfg.Toolchain)
	}
	if len(cfg.Toolchain.Env) != 1 {
		t.Fatalf("toolchain env not loaded: %v", cfg.Toolchain.Env)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Fatalf("unexpected logger config: %+v", cfg.Logger)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), lookupFrom(nil)); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.ExecutionTimeout = 4 * time.Second
	cfg.EntryPointPolicy = source.PolicyStrict
	cfg.WorkRoot = "/srv/exec"

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "executor.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, err := Load(path, lookupFrom(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ExecutionTimeout != cfg.ExecutionTimeout || loaded.EntryPointPolicy != cfg.EntryPointPolicy || loaded.WorkRoot != cfg.WorkRoot {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadRejectsStdoutLogOutput(t *testing.T) {
	for _, value := range []string{"stdout", "STDOUT"} {
		if _, err := Load("", lookupFrom(map[string]string{EnvLogOutput: value})); err == nil {
			t.Fatalf("LOG_OUTPUT=%s must be rejected", value)
		}
	}

	path := filepath.Join(t.TempDir(), "executor.yaml")
	if err := os.WriteFile(path, []byte("logger:\n  outputPath: stdout\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path, lookupFrom(nil)); err == nil {
		t.Fatalf("outputPath stdout in file must be rejected")
	}
}

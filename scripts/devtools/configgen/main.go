package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"javaexec/internal/config"

	"gopkg.in/yaml.v3"
)

func main() {
	overridesPath := flag.String("overrides", "", "Path to YAML overrides merged over the defaults")
	outputPath := flag.String("output", "configs/executor.yaml", "Path of the generated config")
	flag.Parse()

	if err := generate(*overridesPath, *outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// generate writes the default config merged with overrides, then loads the
// result back so a broken override never reaches disk unnoticed.
func generate(overridesPath, outputPath string) error {
	if outputPath == "" {
		return errors.New("output path is required")
	}

	defaults, err := config.Marshal(config.Default())
	if err != nil {
		return err
	}
	var base interface{}
	if err := yaml.Unmarshal(defaults, &base); err != nil {
		return fmt.Errorf("parse defaults failed: %w", err)
	}
	base = normalizeValue(base)

	if overridesPath != "" {
		override, err := loadYAML(overridesPath)
		if err != nil {
			return fmt.Errorf("load overrides failed: %w", err)
		}
		merged, err := mergeMap(base, normalizeValue(override))
		if err != nil {
			return fmt.Errorf("merge overrides failed: %w", err)
		}
		base = merged
	}

	if err := writeYAML(outputPath, base); err != nil {
		return err
	}
	noEnv := func(string) (string, bool) { return "", false }
	if _, err := config.Load(outputPath, noEnv); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}
	return nil
}

func loadYAML(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml failed: %w", err)
	}

	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse yaml failed: %w", err)
	}
	if value == nil {
		return map[string]interface{}{}, nil
	}
	return value, nil
}

func writeYAML(path string, value interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir failed: %w", err)
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal yaml failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write yaml failed: %w", err)
	}
	return nil
}

func normalizeValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			out[k] = normalizeValue(v)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprintf("%v", k)
			}
			out[key] = normalizeValue(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(typed))
		for _, item := range typed {
			out = append(out, normalizeValue(item))
		}
		return out
	default:
		return value
	}
}

// mergeMap overlays override on base; nested maps merge, anything else replaces.
func mergeMap(base interface{}, override interface{}) (interface{}, error) {
	baseMap, ok := base.(map[string]interface{})
	if !ok {
		return nil, errors.New("base config is not a map")
	}
	overrideMap, ok := override.(map[string]interface{})
	if !ok {
		return nil, errors.New("override config is not a map")
	}

	merged := make(map[string]interface{}, len(baseMap))
	for k, v := range baseMap {
		merged[k] = v
	}

	for key, overrideValue := range overrideMap {
		baseValue, exists := merged[key]
		if !exists {
			merged[key] = overrideValue
			continue
		}

		baseChild, baseIsMap := baseValue.(map[string]interface{})
		overrideChild, overrideIsMap := overrideValue.(map[string]interface{})
		if baseIsMap && overrideIsMap {
			combined, err := mergeMap(baseChild, overrideChild)
			if err != nil {
				return nil, err
			}
			merged[key] = combined
			continue
		}
		merged[key] = overrideValue
	}
	return merged, nil
}

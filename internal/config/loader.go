package config

import (
	"os"
	"path/filepath"
)

// defaultConfigFiles are probed in order inside every default location.
var defaultConfigFiles = []string{"config.yaml", "config.yml", "config.toml", "config.json"}

// GetConfigPath determines the configuration file path based on command-line flags,
// environment variables, and default locations.
// Priority:
// 1. --config command-line flag
// 2. CFGSWITCH_CONFIG_PATH environment variable
// 3. config.{yaml,yml,toml,json} in the current working directory
// 4. the same names in the executable's directory
// 5. the same names in <user config dir>/cfgswitch
// Returns "" when nothing is found.
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" && fileExists(configFilePathFlag) {
		return configFilePathFlag
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" && fileExists(envPath) {
		return envPath
	}

	for _, loc := range defaultLocations() {
		for _, file := range defaultConfigFiles {
			path := filepath.Join(loc, file)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// DefaultSavePath is where settings are written when no file was loaded.
func DefaultSavePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cfgswitch", "config.yaml")
	}
	return "config.yaml"
}

func defaultLocations() []string {
	var locations []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		locations = append(locations, dir)
	}

	if cwd, err := os.Getwd(); err == nil {
		add(cwd)
	}
	if exePath, err := os.Executable(); err == nil {
		add(filepath.Dir(exePath))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		add(filepath.Join(dir, "cfgswitch"))
	}
	return locations
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

package config

import (
	"path/filepath"

	"github.com/aleister1102/cfgswitch/internal/common"
)

// ProfileConfig locates the live configuration and its profiles and controls
// how they are compared and validated.
type ProfileConfig struct {
	Directory      string            `json:"directory,omitempty" yaml:"directory,omitempty" toml:"directory,omitempty" validate:"required"`
	LiveFileName   string            `json:"live_file_name,omitempty" yaml:"live_file_name,omitempty" toml:"live_file_name,omitempty" validate:"required,plainname"`
	ProfileSuffix  string            `json:"profile_suffix,omitempty" yaml:"profile_suffix,omitempty" toml:"profile_suffix,omitempty" validate:"required,plainname"`
	MaxFileSizeMB  int               `json:"max_file_size_mb,omitempty" yaml:"max_file_size_mb,omitempty" toml:"max_file_size_mb,omitempty" validate:"min=1"`
	IgnoredFields  []string          `json:"ignored_fields" yaml:"ignored_fields" toml:"ignored_fields" validate:"dive,ignoredfield"`
	RequiredFields []string          `json:"required_fields,omitempty" yaml:"required_fields,omitempty" toml:"required_fields,omitempty" validate:"dive,required"`
	FieldTypes     map[string]string `json:"field_types,omitempty" yaml:"field_types,omitempty" toml:"field_types,omitempty" validate:"dive,keys,required,endkeys,jsontype"`
}

// NewDefaultProfileConfig creates default profile configuration
func NewDefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		Directory:      DefaultProfileDirectory,
		LiveFileName:   DefaultProfileLiveFileName,
		ProfileSuffix:  DefaultProfileSuffix,
		MaxFileSizeMB:  DefaultProfileMaxFileSizeMB,
		IgnoredFields:  DefaultIgnoredFields(),
		RequiredFields: []string{},
		FieldTypes:     map[string]string{},
	}
}

// ResolveDirectory expands a leading "~" and returns an absolute directory path.
func (pc ProfileConfig) ResolveDirectory() (string, error) {
	dir, err := common.ExpandHome(pc.Directory)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", common.WrapError(err, "failed to resolve profile directory")
	}
	return abs, nil
}

// LivePath returns the absolute path of the live configuration file.
func (pc ProfileConfig) LivePath() (string, error) {
	dir, err := pc.ResolveDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pc.LiveFileName), nil
}

// MaxFileSize returns the largest profile file the store will read, in bytes.
func (pc ProfileConfig) MaxFileSize() int64 {
	if pc.MaxFileSizeMB <= 0 {
		return DefaultProfileMaxFileSizeMB * 1024 * 1024
	}
	return int64(pc.MaxFileSizeMB) * 1024 * 1024
}

// Clone returns a copy that shares no slices or maps with pc.
func (pc ProfileConfig) Clone() ProfileConfig {
	out := pc
	out.IgnoredFields = append([]string(nil), pc.IgnoredFields...)
	out.RequiredFields = append([]string(nil), pc.RequiredFields...)
	out.FieldTypes = make(map[string]string, len(pc.FieldTypes))
	for k, v := range pc.FieldTypes {
		out.FieldTypes[k] = v
	}
	return out
}

package config

// UIConfig holds presentation preferences for the command line front-end
type UIConfig struct {
	ShowNotifications bool   `json:"show_notifications" yaml:"show_notifications" toml:"show_notifications"`
	Language          string `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	Icons             string `json:"icons,omitempty" yaml:"icons,omitempty" toml:"icons,omitempty" validate:"omitempty,iconset"`
}

// NewDefaultUIConfig creates default UI configuration
func NewDefaultUIConfig() UIConfig {
	return UIConfig{
		ShowNotifications: DefaultUIShowNotifications,
		Language:          DefaultUILanguage,
		Icons:             DefaultUIIcons,
	}
}

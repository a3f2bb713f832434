package config

// StorageConfig defines where the switch history is kept and exported
type StorageConfig struct {
	HistoryEnabled   bool   `json:"history_enabled" yaml:"history_enabled" toml:"history_enabled"`
	HistoryDBPath    string `json:"history_db_path,omitempty" yaml:"history_db_path,omitempty" toml:"history_db_path,omitempty" validate:"required_if=HistoryEnabled true"`
	ExportDir        string `json:"export_dir,omitempty" yaml:"export_dir,omitempty" toml:"export_dir,omitempty"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" toml:"compression_codec,omitempty" validate:"omitempty,compression"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		HistoryEnabled:   DefaultStorageHistoryEnabled,
		HistoryDBPath:    DefaultStorageHistoryDBPath,
		ExportDir:        DefaultStorageExportDir,
		CompressionCodec: DefaultStorageCompressionCodec,
	}
}

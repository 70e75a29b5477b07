package storage

// Config holds media storage configuration
type Config struct {
	Type    string `yaml:"type" envconfig:"TYPE"` // "mock" or "cloudinary"
	MockDir string `yaml:"mock_dir" envconfig:"MOCK_DIR"`
	// BaseURL is the public server URL used to build mock media URLs
	BaseURL      string `yaml:"base_url" envconfig:"BASE_URL"`
	MaxFileBytes int64  `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES"`

	Cloudinary CloudinaryConfig `yaml:"cloudinary" envconfig:"CLOUDINARY"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name" envconfig:"CLOUD_NAME"`
	APIKey    string `yaml:"api_key" envconfig:"API_KEY"`
	APISecret string `yaml:"api_secret" envconfig:"API_SECRET"`
	BaseURL   string `yaml:"base_url" envconfig:"BASE_URL"`
}

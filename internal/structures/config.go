package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type BotConfig struct {
	Token  string `yaml:"token"`
	Status string `yaml:"status"`
}

type StorageConfig struct {
	Dir          string        `yaml:"dir" validate:"required|unixPath"`
	ChannelsFile string        `yaml:"channelsFile" validate:"required"`
	PinsFile     string        `yaml:"pinsFile" validate:"required"`
	RolesFile    string        `yaml:"rolesFile" validate:"required"`
	LockTimeout  time.Duration `yaml:"lockTimeout"`
}

type MemoriesConfig struct {
	ChannelName         string `yaml:"channelName" validate:"required"`
	DeletedAccountLabel string `yaml:"deletedAccountLabel" validate:"required"`
	Hour                int    `yaml:"hour" validate:"min:0|max:23"`
	Minute              int    `yaml:"minute" validate:"min:0|max:59"`
	StatePath           string `yaml:"statePath" validate:"required|unixPath"`
}

type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FilePath string        `yaml:"filePath"`
	Interval time.Duration `yaml:"interval"`
}

type DiscordConfig struct {
	RetryAttempts uint          `yaml:"retryAttempts"`
	RetryDelay    time.Duration `yaml:"retryDelay"`
	EventTimeout  time.Duration `yaml:"eventTimeout"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	Bot       BotConfig      `yaml:"bot"`
	Storage   StorageConfig  `yaml:"storage"`
	Memories  MemoriesConfig `yaml:"memories"`
	Backup    BackupConfig   `yaml:"backup"`
	Discord   DiscordConfig  `yaml:"discord"`
	WebServer Server         `yaml:"webServer"`
	Logger    LoggerConfig   `yaml:"logger"`
	Cache     CacheConfig    `yaml:"cache"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

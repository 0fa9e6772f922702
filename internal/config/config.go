package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "DRAFTROOM"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "draftroom.db"
	defaultLogLevel     = "info"
	defaultBaseURL      = "http://localhost:8080"
	defaultSMTPPort     = "587"
	defaultMailFromName = "Draftroom"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	SigningSecret string
	BaseURL       string
	EditorBaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("links.base_url", defaultBaseURL)
	configViper.SetDefault("links.editor_base_url", defaultBaseURL)
	configViper.SetDefault("smtp.port", defaultSMTPPort)
	configViper.SetDefault("smtp.from_name", defaultMailFromName)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		SigningSecret: configViper.GetString("links.signing_secret"),
		BaseURL:       configViper.GetString("links.base_url"),
		EditorBaseURL: configViper.GetString("links.editor_base_url"),
		SMTPHost:      configViper.GetString("smtp.host"),
		SMTPPort:      configViper.GetString("smtp.port"),
		SMTPUsername:  configViper.GetString("smtp.username"),
		SMTPPassword:  configViper.GetString("smtp.password"),
		MailFrom:      configViper.GetString("smtp.from"),
		MailFromName:  configViper.GetString("smtp.from_name"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("links.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("links.base_url is required")
	}
	return nil
}

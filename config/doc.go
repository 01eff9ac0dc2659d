// Package config loads program configuration.
//
// LoadConfig uses Viper to read ./<app>.yml, ./.<app>.yml or
// <user config dir>/<app>/config.yml, loads a .env file with godotenv,
// and overlays environment variables before unmarshalling into a struct
// with mapstructure tags.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("rawes", &cfg, config.WithEnvPrefix("RAWES"))
//
// With a prefix, RAWES_URL sets the url key and RAWES_LOGGING_LEVEL sets
// logging.level.
package config

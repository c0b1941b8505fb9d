// Package config loads typed configuration structs from the environment.
//
// Each subsystem declares its own Config struct with caarlos0/env tags; Load
// parses it once per type and caches the result, so independent packages can
// load the same struct without re-reading the environment. A .env file, if
// present, is loaded first via godotenv for local development.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
package config

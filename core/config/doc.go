// Package config loads typed configuration from environment variables using
// caarlos0/env. A .env file in the working directory, when present, is read
// once before the first load; variables already set in the environment win.
//
// Each configuration type is parsed once and cached:
//
//	type BrokerConfig struct {
//		HistorySize int `env:"BROKER_HISTORY_SIZE" envDefault:"100"`
//	}
//
//	var cfg BrokerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Use MustLoad during startup when a configuration error should abort the
// process.
package config

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type config struct {
	Endpoint   string
	RpcAddress uint64
	LogAddress uint64
	Verbose    bool
}

func defaultConfig() config {
	return config{
		RpcAddress: uint64('R'),
		LogAddress: 1,
	}
}

// hdlc_sniff config.toml key mapping.
type fileConfig struct {
	Endpoint   string `toml:"endpoint"`
	RpcAddress uint64 `toml:"rpc_address"`
	LogAddress uint64 `toml:"log_address"`
	Verbose    bool   `toml:"verbose"`
}

// loadConfig overlays config.toml values onto the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load sniffer config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	}
	if meta.IsDefined("rpc_address") {
		cfg.RpcAddress = raw.RpcAddress
	}
	if meta.IsDefined("log_address") {
		cfg.LogAddress = raw.LogAddress
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}

	return cfg, nil
}

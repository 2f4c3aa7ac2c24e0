package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultSourceURLs are the reference documents fetched to ground LLM
// suggestions when the config file does not override them.
var defaultSourceURLs = []string{
	"https://www.helius.dev/docs",
	"https://anvit.hashnode.dev/a-dummys-guide-to-solana-architecture",
	"https://2501babe.github.io/posts/solana101.html",
	"https://www.umbraresearch.xyz/writings/lifecycle-of-a-solana-transaction",
	"https://www.helius.dev/blog/solana-nodes-a-primer-on-solana-rpcs-validators-and-rpc-providers",
	"https://lorisleiva.com/create-a-solana-dapp-from-scratch",
}

// Config holds settings for the estimator server. ListenAddr is the HTTP
// listen address, LLMModel selects the Anthropic model for suggestions,
// SourceURLs are the grounding documents, and SourceTimeout bounds each
// grounding fetch.
type Config struct {
	ListenAddr    string
	LogLevel      string
	LLMModel      string
	SourceURLs    []string
	SourceTimeout time.Duration
}

// fileConfig is the YAML config file shape. Durations are strings in Go
// duration syntax (e.g. "10s").
type fileConfig struct {
	Listen        string   `yaml:"listen"`
	LogLevel      string   `yaml:"log_level"`
	LLMModel      string   `yaml:"llm_model"`
	SourceURLs    []string `yaml:"source_urls"`
	SourceTimeout string   `yaml:"source_timeout"`
}

func parseConfig(args []string) (*Config, error) {
	config := &Config{}
	var configPath string

	fs := flag.NewFlagSet("rpcmeter", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to optional YAML config file")
	fs.StringVar(&config.ListenAddr, "listen", ":8080", "Address to listen on for the HTTP API")
	fs.StringVar(&config.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&config.LLMModel, "llm-model", "", "Anthropic model for method suggestions (empty selects the default)")
	fs.DurationVar(&config.SourceTimeout, "source-timeout", 10*time.Second, "Timeout for fetching individual grounding sources")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := applyConfigFile(config, configPath); err != nil {
			return nil, err
		}
		// Flags given explicitly on the command line win over the file.
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "listen":
				config.ListenAddr = f.Value.String()
			case "log-level":
				config.LogLevel = f.Value.String()
			case "llm-model":
				config.LLMModel = f.Value.String()
			case "source-timeout":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					config.SourceTimeout = d
				}
			}
		})
	}

	if len(config.SourceURLs) == 0 {
		config.SourceURLs = defaultSourceURLs
	}
	if config.SourceTimeout <= 0 {
		config.SourceTimeout = 10 * time.Second
	}

	return config, nil
}

func applyConfigFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if file.Listen != "" {
		config.ListenAddr = file.Listen
	}
	if file.LogLevel != "" {
		config.LogLevel = file.LogLevel
	}
	if file.LLMModel != "" {
		config.LLMModel = file.LLMModel
	}
	if len(file.SourceURLs) > 0 {
		config.SourceURLs = file.SourceURLs
	}
	if file.SourceTimeout != "" {
		d, err := time.ParseDuration(file.SourceTimeout)
		if err != nil {
			return fmt.Errorf("invalid source_timeout in config file: %w", err)
		}
		config.SourceTimeout = d
	}

	return nil
}

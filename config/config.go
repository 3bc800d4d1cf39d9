package config

import (
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/KincaidYang/nicwhois/whois_tools"
)

const (
	DefaultPort       = 8043
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultMaxSize    = 100 // megabytes
	DefaultMaxBackups = 3
	DefaultMaxAge     = 28 // days
)

var (
	// Version information - read from build info (Go 1.18+)
	Version   string
	BuildTime string
	GitCommit string

	// defaultFiles are tried in order when no configuration file is named.
	defaultFiles = []string{"config.yaml", "config.yml", "config.json", "config.toml"}

	// envFile holds WHOIS_* variables that are loaded into the environment
	// before the overrides are applied. Variables already set win.
	envFile = ".env"
)

func init() {
	initVersionInfo()
}

// Load reads the configuration from path, or from the first default file
// found in the working directory when path is empty. Environment variables
// override the file and missing values get defaults. Without a file the
// configuration is built from the environment alone.
func Load(path string) (*Config, error) {
	var config Config

	if err := loadConfigFromFile(&config, path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to load %s", envFile)
	}

	// Override configuration with environment variables if they exist
	overrideConfigWithEnv(&config)

	applyDefaults(&config)
	return &config, nil
}

func loadConfigFromFile(config *Config, path string) error {
	if path == "" {
		for _, name := range defaultFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return nil
		}
	}

	configFile, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open configuration file")
	}
	defer configFile.Close()

	if err := decode(configFile, filepath.Ext(path), config); err != nil {
		return errors.Wrapf(err, "failed to decode configuration file %s", path)
	}
	return nil
}

func decode(r io.Reader, ext string, config *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err := yaml.NewDecoder(r).Decode(config)
		if err == io.EOF {
			return nil
		}
		return err
	case ".json":
		return json.NewDecoder(r).Decode(config)
	case ".toml":
		_, err := toml.NewDecoder(r).Decode(config)
		return err
	}
	return errors.Errorf("unsupported configuration file format: %q", ext)
}

func overrideConfigWithEnv(config *Config) {
	if port := os.Getenv("WHOIS_PORT"); port != "" {
		if portInt, err := strconv.Atoi(port); err == nil {
			config.Port = portInt
		}
	}
	if authoritative := os.Getenv("WHOIS_AUTHORITATIVE"); authoritative != "" {
		config.Authoritative = parseBool(authoritative)
	}
	if maxHops := os.Getenv("WHOIS_MAX_HOPS"); maxHops != "" {
		if hops, err := strconv.Atoi(maxHops); err == nil {
			config.MaxHops = hops
		}
	}
	if dialTimeout := os.Getenv("WHOIS_DIAL_TIMEOUT"); dialTimeout != "" {
		if seconds, err := strconv.Atoi(dialTimeout); err == nil {
			config.DialTimeout = seconds
		}
	}
	if readTimeout := os.Getenv("WHOIS_READ_TIMEOUT"); readTimeout != "" {
		if seconds, err := strconv.Atoi(readTimeout); err == nil {
			config.ReadTimeout = seconds
		}
	}
	if punycode := os.Getenv("WHOIS_PUNYCODE"); punycode != "" {
		config.Punycode = parseBool(punycode)
	}
	if registrable := os.Getenv("WHOIS_REGISTRABLE_DOMAIN"); registrable != "" {
		config.RegistrableDomain = parseBool(registrable)
	}
	if mcp := os.Getenv("WHOIS_MCP"); mcp != "" {
		config.MCP = parseBool(mcp)
	}

	if proxyServer := os.Getenv("WHOIS_PROXY_SERVER"); proxyServer != "" {
		config.ProxyServer = proxyServer
	}
	if proxyUsername := os.Getenv("WHOIS_PROXY_USERNAME"); proxyUsername != "" {
		config.ProxyUsername = proxyUsername
	}
	if proxyPassword := os.Getenv("WHOIS_PROXY_PASSWORD"); proxyPassword != "" {
		config.ProxyPassword = proxyPassword
	}
	if proxySuffixes := os.Getenv("WHOIS_PROXY_SUFFIXES"); proxySuffixes != "" {
		config.ProxySuffixes = strings.Split(proxySuffixes, ",")
	}

	if level := os.Getenv("WHOIS_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if format := os.Getenv("WHOIS_LOG_FORMAT"); format != "" {
		config.Log.Format = format
	}
	if file := os.Getenv("WHOIS_LOG_FILE"); file != "" {
		config.Log.File = file
	}
}

func parseBool(s string) bool {
	return s == "true" || s == "1"
}

// applyDefaults sets default values for everything left unset
func applyDefaults(config *Config) {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.MaxHops <= 0 {
		config.MaxHops = whois_tools.DefaultMaxHops
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = int(whois_tools.DefaultDialTimeout / time.Second)
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = int(whois_tools.DefaultReadTimeout / time.Second)
	}
	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}
	if config.Log.MaxSize == 0 {
		config.Log.MaxSize = DefaultMaxSize
	}
	if config.Log.MaxBackups == 0 {
		config.Log.MaxBackups = DefaultMaxBackups
	}
	if config.Log.MaxAge == 0 {
		config.Log.MaxAge = DefaultMaxAge
	}
}

// ClientOptions builds the options for a whois client from the
// configuration. metrics may be nil.
func (c *Config) ClientOptions(metrics *whois_tools.Metrics) (whois_tools.ClientOptions, error) {
	transportOptions := whois_tools.TCPTransportOptions{
		DialTimeout: time.Duration(c.DialTimeout) * time.Second,
		ReadTimeout: time.Duration(c.ReadTimeout) * time.Second,
	}
	if c.ProxyServer != "" {
		dialer, err := whois_tools.NewProxyDialer(c.ProxyServer, c.ProxyUsername, c.ProxyPassword, c.ProxySuffixes)
		if err != nil {
			return whois_tools.ClientOptions{}, err
		}
		transportOptions.Dialer = dialer
	}

	return whois_tools.ClientOptions{
		Directory:         c.Servers,
		Transport:         whois_tools.NewTCPTransport(transportOptions),
		Authoritative:     c.Authoritative,
		MaxHops:           c.MaxHops,
		Metrics:           metrics,
		Punycode:          c.Punycode,
		RegistrableDomain: c.RegistrableDomain,
	}, nil
}

// NewClient returns a whois client configured from c, with its metrics
// registered in reg. reg may be nil to disable metrics.
func (c *Config) NewClient(reg prometheus.Registerer) (*whois_tools.Client, error) {
	var metrics *whois_tools.Metrics
	if reg != nil {
		metrics = whois_tools.NewMetrics(reg)
	}
	opt, err := c.ClientOptions(metrics)
	if err != nil {
		return nil, err
	}
	return whois_tools.NewClient(opt), nil
}

// initVersionInfo reads version information from Go build info
// This works automatically with `go build` (Go 1.18+)
func initVersionInfo() {
	Version = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	// Get module version
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	// Get VCS info from build settings
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				GitCommit = setting.Value[:7] // short commit hash
			} else {
				GitCommit = setting.Value
			}
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				GitCommit += "-dirty"
			}
		}
	}
}

package config

import "github.com/KincaidYang/nicwhois/server_lists"

// Config represents the configuration for the application.
type Config struct {
	// Port is the port number for the HTTP server.
	Port int `json:"port" yaml:"port" toml:"port"`
	// Authoritative enables the registrar lookup for answers matching several records.
	Authoritative bool `json:"authoritative" yaml:"authoritative" toml:"authoritative"`
	// MaxHops is the longest referral chain that is followed.
	MaxHops int `json:"maxHops" yaml:"maxHops" toml:"maxHops"`
	// DialTimeout and ReadTimeout are in seconds.
	DialTimeout int `json:"dialTimeout" yaml:"dialTimeout" toml:"dialTimeout"`
	ReadTimeout int `json:"readTimeout" yaml:"readTimeout" toml:"readTimeout"`
	// Punycode converts internationalized names before they are sent.
	Punycode bool `json:"punycode" yaml:"punycode" toml:"punycode"`
	// RegistrableDomain strips host names down to the registrable domain.
	RegistrableDomain bool `json:"registrableDomain" yaml:"registrableDomain" toml:"registrableDomain"`
	// Servers overrides entries of the built-in server directory.
	Servers server_lists.Directory `json:"servers" yaml:"servers" toml:"servers"`

	// ProxyServer is the SOCKS5 proxy server, host:port.
	ProxyServer string `json:"proxyServer" yaml:"proxyServer" toml:"proxyServer"`
	// ProxyUsername is the username for the proxy server
	ProxyUsername string `json:"proxyUsername" yaml:"proxyUsername" toml:"proxyUsername"`
	// ProxyPassword is the password for the proxy server
	ProxyPassword string `json:"proxyPassword" yaml:"proxyPassword" toml:"proxyPassword"`
	// ProxySuffixes limits the proxy to servers ending in one of them. Empty proxies everything.
	ProxySuffixes []string `json:"proxySuffixes" yaml:"proxySuffixes" toml:"proxySuffixes"`

	Log Log `json:"log" yaml:"log" toml:"log"`

	// MCP mounts the MCP endpoint on /mcp when serving HTTP.
	MCP bool `json:"mcp" yaml:"mcp" toml:"mcp"`
}

// Log holds the logging configuration.
type Log struct {
	Level string `json:"level" yaml:"level" toml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format" toml:"format"`
	// File enables writing to a rotated log file in addition to stderr.
	File string `json:"file" yaml:"file" toml:"file"`
	// MaxSize in megabytes and MaxAge in days control the rotation.
	MaxSize    int  `json:"maxSize" yaml:"maxSize" toml:"maxSize"`
	MaxBackups int  `json:"maxBackups" yaml:"maxBackups" toml:"maxBackups"`
	MaxAge     int  `json:"maxAge" yaml:"maxAge" toml:"maxAge"`
	Compress   bool `json:"compress" yaml:"compress" toml:"compress"`
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// ServerConfig holds the validated settings the core subsystems consume.
// It is populated by LoadConfig; nothing downstream of this struct parses
// INI itself.
type ServerConfig struct {
	BindAddress  string
	Port         int
	HTMLRoot     string
	ServerName   string
	PIDFile      string
	ExtraHeaders string

	TLSEnabled bool
	TLSCert    string
	TLSKey     string

	LogFile  string
	LogLevel LogLevel
}

func defaultConfig() *ServerConfig {
	return &ServerConfig{
		BindAddress: "any",
		Port:        80,
		HTMLRoot:    "html",
		ServerName:  "nvhttpd",
		PIDFile:     "/var/run/nvhttpd.pid",
		LogLevel:    LevelInfo,
	}
}

// LoadConfig reads the INI file at path and returns a validated
// ServerConfig. An empty path means no config file was given and every
// default applies; a path that cannot be read is an error. Keys absent
// from the file fall back to the documented defaults.
func LoadConfig(path string) (*ServerConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, path)
	if err != nil {
		return nil, fmt.Errorf("config: error loading %s: %w", path, err)
	}

	server := f.Section("server")
	cfg.Port = server.Key("port").MustInt(cfg.Port)
	cfg.BindAddress = server.Key("ip").MustString(cfg.BindAddress)
	cfg.HTMLRoot = server.Key("html_path").MustString(cfg.HTMLRoot)
	cfg.ServerName = server.Key("name").MustString(cfg.ServerName)

	ssl := f.Section("SSL")
	cfg.TLSEnabled = ssl.Key("enabled").MustBool(false)
	cfg.TLSCert = ssl.Key("certificate").String()
	cfg.TLSKey = ssl.Key("key").String()
	if cfg.TLSEnabled && !server.HasKey("port") {
		cfg.Port = 443
	}

	logging := f.Section("logging")
	cfg.LogFile = logging.Key("file").String()
	cfg.LogLevel = parseLogLevel(strings.ToLower(logging.Key("level").MustString("info")))
	if pid := logging.Key("pid").String(); pid != "" {
		cfg.PIDFile = pid
	}

	cfg.ExtraHeaders = joinResponseHeaders(f.Section("response-headers"))
	return cfg, nil
}

// joinResponseHeaders glues an arbitrary set of key=value pairs from the
// [response-headers] section into a single "Key: Value\r\n"-per-line block,
// ready to splice into every response's header section.
func joinResponseHeaders(sec *ini.Section) string {
	var b strings.Builder
	for _, key := range sec.Keys() {
		fmt.Fprintf(&b, "%s: %s\r\n", key.Name(), key.Value())
	}
	return b.String()
}

// resolveBindAddress maps the configured bind address to a literal,
// treating "any" as the unspecified IPv4 address.
func (c *ServerConfig) resolveBindAddress() string {
	if c.BindAddress == "" || strings.EqualFold(c.BindAddress, "any") {
		return "0.0.0.0"
	}
	return c.BindAddress
}

func (c *ServerConfig) listenAddr() string {
	return c.resolveBindAddress() + ":" + strconv.Itoa(c.Port)
}

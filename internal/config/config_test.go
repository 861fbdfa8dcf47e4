package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: time.Second, MaxBodySize: 1024},
		Validation: ValidationConfig{
			MaxConcurrent: 4,
			MaxWaitTime:   time.Second,
			ChangeCap:     10,
			HistorySize:   10,
		},
		Session: SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, ResultRetention: time.Minute},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Server.MaxBodySize != 32<<20 {
		t.Errorf("Server.MaxBodySize = %d, want %d", cfg.Server.MaxBodySize, 32<<20)
	}
	if cfg.Validation.MaxConcurrent != 4 {
		t.Errorf("Validation.MaxConcurrent = %d, want %d", cfg.Validation.MaxConcurrent, 4)
	}
	if cfg.Validation.ProgressInterval != 250*time.Millisecond {
		t.Errorf("Validation.ProgressInterval = %v, want 250ms", cfg.Validation.ProgressInterval)
	}
	if cfg.Validation.ChangeCap != 5000 {
		t.Errorf("Validation.ChangeCap = %d, want %d", cfg.Validation.ChangeCap, 5000)
	}
	if !cfg.Validation.CleanupMode {
		t.Error("Validation.CleanupMode = false, want true")
	}
	if len(cfg.Validation.AllowedEmailDomains) != 0 {
		t.Errorf("Validation.AllowedEmailDomains = %v, want empty", cfg.Validation.AllowedEmailDomains)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 100)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("VALIDATION_MAX_CONCURRENT", "10")
	t.Setenv("VALIDATION_CLEANUP_MODE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Validation.MaxConcurrent != 10 {
		t.Errorf("Validation.MaxConcurrent = %d, want %d", cfg.Validation.MaxConcurrent, 10)
	}
	if cfg.Validation.CleanupMode {
		t.Error("Validation.CleanupMode = true, want false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("ALLOWED_EMAIL_DOMAINS", ".com, .co.za")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{".com", ".co.za"}
	got := cfg.Validation.AllowedEmailDomains
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("AllowedEmailDomains = %v, want %v", got, want)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"bad integer", "SERVER_PORT", "eighty"},
		{"bad duration", "SESSION_TTL", "two hours"},
		{"bad boolean", "RATE_LIMIT_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%q expected error", tt.env, tt.val)
			}
			if !strings.Contains(err.Error(), tt.env) {
				t.Errorf("error should mention %s: %v", tt.env, err)
			}
		})
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("VALIDATION_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Validation.MaxWaitTime != 90*time.Second {
		t.Errorf("Validation.MaxWaitTime = %v, want %v", cfg.Validation.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero body size", func(c *Config) { c.Server.MaxBodySize = 0 }, "SERVER_MAX_BODY_SIZE"},
		{"zero concurrency", func(c *Config) { c.Validation.MaxConcurrent = 0 }, "VALIDATION_MAX_CONCURRENT"},
		{"zero history", func(c *Config) { c.Validation.HistorySize = 0 }, "VALIDATION_HISTORY_SIZE"},
		{"domain without dot", func(c *Config) { c.Validation.AllowedEmailDomains = []string{"com"} }, "must start with a dot"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "SESSION_TTL"},
		{"rate enabled without limit", func(c *Config) { c.Rate.RequestsPerMinute = 0 }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"rate disabled without limit", func(c *Config) { c.Rate = RateLimitConfig{} }, ""},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"::1", 443, "[::1]:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_OmitsProxyList(t *testing.T) {
	cfg := validConfig()
	cfg.Security.TrustedProxies = []string{"10.1.2.0/24"}

	str := cfg.String()
	if strings.Contains(str, "10.1.2.0") {
		t.Error("String() should not list proxy addresses")
	}
	if !strings.Contains(str, "TrustedProxies: 1") {
		t.Errorf("String() = %q, want proxy count", str)
	}
}

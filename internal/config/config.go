// Package config loads the gateway's process-wide settings from the
// environment once at startup into a frozen value. Nothing in this
// package touches a global; every component that needs configuration
// receives the Config value explicitly from main.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DomainTag identifies which front-end domain a link belongs to, so
// that two public domains backed by the same link store stay independent.
type DomainTag string

const (
	DomainNone DomainTag = ""
	DomainWeb  DomainTag = "web"
	DomainWebX DomainTag = "webx"
)

// Config is the full set of environment-derived settings (spec §6.3).
// It is built once in main and passed down; nothing here is mutated
// after Load returns.
type Config struct {
	APIID   int
	APIHash string

	// BotTokens holds one credential per upstream identity. Workers holds
	// WORKERS as read; the number of identities does not depend on it.
	// MULTI_CLIENT=false disables the pool entirely (a single identity is
	// used, matching MULTI_CLIENT=false in the original).
	BotTokens   []string
	MultiClient bool
	Workers     int

	BinChannelID         int64
	BinChannelAccessHash int64

	DatabaseURL string // empty => in-memory link store fallback

	Port        int
	BindAddress string

	FQDN            string
	HasSSL          bool
	ServeDomain     DomainTag
	DualDomainWeb   string
	DualDomainWebX  string
	SleepThreshold  int
	PingInterval    int
	OwnerIDs        map[int64]struct{}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// Load reads Config from the environment. It does not validate upstream
// reachability; callers should call Validate before wiring components.
func Load() Config {
	tokens := splitNonEmpty(os.Getenv("BOT_TOKEN"))

	owners := map[int64]struct{}{}
	for _, raw := range strings.Fields(os.Getenv("OWNER_ID")) {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			owners[id] = struct{}{}
		}
	}

	serveDomain := DomainTag(strings.ToLower(os.Getenv("SERVE_DOMAIN")))
	switch serveDomain {
	case DomainWeb, DomainWebX, DomainNone:
	default:
		serveDomain = DomainNone
	}

	return Config{
		APIID:          envInt("API_ID", 0),
		APIHash:        os.Getenv("API_HASH"),
		BotTokens:      tokens,
		MultiClient:    envBool("MULTI_CLIENT", false),
		Workers:        envInt("WORKERS", 4),
		BinChannelID:         envInt64("BIN_CHANNEL", 0),
		BinChannelAccessHash: envInt64("BIN_CHANNEL_ACCESS_HASH", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           envInt("PORT", 8080),
		BindAddress:    envOr("BIND_ADDRESS", "0.0.0.0"),
		FQDN:           os.Getenv("FQDN"),
		HasSSL:         envBool("HAS_SSL", false),
		ServeDomain:    serveDomain,
		DualDomainWeb:  os.Getenv("DUAL_DOMAIN_WEB"),
		DualDomainWebX: os.Getenv("DUAL_DOMAIN_WEBX"),
		SleepThreshold: envInt("SLEEP_THRESHOLD", 60),
		PingInterval:   envInt("PING_INTERVAL", 1200),
		OwnerIDs:       owners,
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Validate reports the first configuration problem that would prevent
// the gateway from serving streams at all.
func (c Config) Validate() error {
	if c.APIID == 0 || c.APIHash == "" {
		return fmt.Errorf("config: API_ID and API_HASH are required")
	}
	if len(c.BotTokens) == 0 {
		return fmt.Errorf("config: BOT_TOKEN is required")
	}
	if c.BinChannelID == 0 {
		return fmt.Errorf("config: BIN_CHANNEL is required")
	}
	return nil
}

// IdentityCount is how many upstream identities the pool should create.
func (c Config) IdentityCount() int {
	if !c.MultiClient {
		return 1
	}
	n := len(c.BotTokens)
	if n == 0 {
		return 1
	}
	return n
}

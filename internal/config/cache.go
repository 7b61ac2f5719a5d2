package config

import (
	"strings"
	"time"
)

// Public routes with their own cache lifetime. The day timeline changes with
// every booking decision, so it expires sooner than the stadium catalogue.
const (
	RouteStadiums     = "/v1/stadiums"
	RouteStadium      = "/v1/stadiums/:id"
	RouteStadiumSlots = "/v1/stadiums/:id/slots"
	RouteTeams        = "/v1/teams"
)

// CacheConfig drives the response cache in front of the public catalogue.
type CacheConfig struct {
	Enabled bool
	Methods map[string]bool
	// TTL applies to routes missing from RouteTTL.
	TTL time.Duration
	// RouteTTL is keyed by echo route pattern. A zero or negative value
	// turns caching off for that route.
	RouteTTL     map[string]time.Duration
	KeyStrategy  string // "route_query" or "method_route_query"
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		Methods: parseMethods(getenv("CACHE_METHODS", "GET")),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		RouteTTL: map[string]time.Duration{
			RouteStadiumSlots: envDur("CACHE_TTL_SLOTS", 5*time.Second),
			RouteTeams:        envDur("CACHE_TTL_TEAMS", 15*time.Second),
		},
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// TTLFor returns how long a response of route may be served from cache.
func (c CacheConfig) TTLFor(route string) time.Duration {
	if d, ok := c.RouteTTL[route]; ok {
		return d
	}
	return c.TTL
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			m[p] = true
		}
	}
	return m
}

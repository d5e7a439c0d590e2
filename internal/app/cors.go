package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/studyhub/core/internal/config"
	"github.com/studyhub/core/internal/middleware"
)

// originRule matches the host[:port] of a request origin. Patterns are an
// exact host, "*.suffix" for any subdomain, or "host:*" for any port.
type originRule struct {
	exact  string
	suffix string
	prefix string
}

func parseOriginRule(pattern string) originRule {
	switch {
	case strings.HasPrefix(pattern, "*."):
		return originRule{suffix: pattern[1:]}
	case strings.HasSuffix(pattern, ":*"):
		return originRule{prefix: strings.TrimSuffix(pattern, "*")}
	default:
		return originRule{exact: pattern}
	}
}

func (r originRule) match(host string) bool {
	switch {
	case r.suffix != "":
		return strings.HasSuffix(host, r.suffix)
	case r.prefix != "":
		return strings.HasPrefix(host, r.prefix)
	default:
		return host == r.exact
	}
}

// originHost returns the host[:port] of origin, or origin itself when it is
// not a URL.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// corsConfig allows every origin in development and only the configured
// patterns otherwise.
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.IdempotenceHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	if cfg.IsDev() || len(cfg.AllowedOrigins) == 0 {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}

	rules := make([]originRule, 0, len(cfg.AllowedOrigins))
	for _, p := range cfg.AllowedOrigins {
		rules = append(rules, parseOriginRule(p))
	}
	c.AllowOriginFunc = func(origin string) bool {
		host := originHost(origin)
		for _, r := range rules {
			if r.match(host) {
				return true
			}
		}
		return false
	}
	return c
}

package http

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

const contentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self'; img-src 'self' data:; connect-src 'self'"

// securityMetrics counts requests turned away or flagged.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// Peers in these ranges are proxies whose forwarding headers are believed.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

func isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the forwarded client when
// the peer is a trusted proxy. X-Forwarded-For wins over X-Real-IP.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !isTrustedProxy(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return host
}

var (
	probeMarkers = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		".php", "etc/passwd", "cmd.exe", "<script", "javascript:",
		"union select", "eval(",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab"}
)

// probeReason names why r looks like a probe, or returns "" for ordinary
// traffic. The grid form only ever sees short GET and POST requests from
// browsers, so anything else is worth a log line.
func probeReason(r *http.Request) string {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, m := range probeMarkers {
		if strings.Contains(target, m) {
			return "path:" + m
		}
	}

	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return "user_agent:" + a
		}
	}

	switch {
	case r.Method == http.MethodTrace || r.Method == http.MethodConnect || r.Method == "TRACK" || r.Method == "DEBUG":
		return "method:" + r.Method
	case len(r.URL.RequestURI()) > 2048:
		return "long_uri"
	case strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5:
		return "forwarding_chain"
	}
	return ""
}

// secureHeaders sets the standard security headers on every response.
func secureHeaders() func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
	return sm.Handler
}

// rateLimit allows perMinute POST requests per client IP. Reads are not limited.
func rateLimit(perMinute int, metrics *securityMetrics) func(http.Handler) http.Handler {
	limiter := httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return extractClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", extractClientIP(r),
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(60))
			NewHTMXResponse().
				Status(http.StatusTooManyRequests).
				TriggerErrorNotification("Too many requests. Please try again later.").
				Text("Rate limit exceeded. Please try again later.").
				Write(w)
		}),
	)
	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// flagSuspicious logs requests that look like probes. They are not blocked.
func flagSuspicious(metrics *securityMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reason := probeReason(r); reason != "" {
				atomic.AddInt64(&metrics.suspiciousRequests, 1)
				slog.WarnContext(r.Context(), "Suspicious request",
					"reason", reason,
					"client_ip", extractClientIP(r),
					"method", r.Method,
					"path", r.URL.Path,
					"user_agent", r.Header.Get("User-Agent"))
			}
			next.ServeHTTP(w, r)
		})
	}
}

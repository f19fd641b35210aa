// Package security sets response headers and flags probing requests.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	probePatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"<script", "union select", "etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
)

const maxURLLength = 2048

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
}

// Detector recognises scanner traffic and resolves the client address
// behind trusted proxies.
type Detector struct {
	suspicious int64

	mu             sync.RWMutex
	trustedProxies []netip.Prefix
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("::1/128"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
		},
	}
}

// DetectSuspiciousRequest reports requests that look like vulnerability probes.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	suspicious := probeReason(r) != ""
	if suspicious {
		atomic.AddInt64(&d.suspicious, 1)
	}
	return suspicious
}

func probeReason(r *http.Request) string {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return "pattern " + p
		}
	}

	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return "agent " + a
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return "method " + r.Method
	}
	if len(r.URL.String()) > maxURLLength {
		return "url length"
	}
	return ""
}

// ExtractClientIP returns the forwarded client address when the direct
// peer is a trusted proxy, and the peer address otherwise.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}

	if d.isTrustedProxy(peer.Unmap()) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
				return addr.String()
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			if addr, err := netip.ParseAddr(xri); err == nil {
				return addr.String()
			}
		}
	}
	return peer.String()
}

func (d *Detector) isTrustedProxy(ip netip.Addr) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.trustedProxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{SuspiciousRequests: atomic.LoadInt64(&d.suspicious)}
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.mu.Lock()
	d.trustedProxies = append(d.trustedProxies, p.Masked())
	d.mu.Unlock()
	return nil
}

// Middleware logs and counts probes; it does not block them.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := probeReason(r); reason != "" {
			atomic.AddInt64(&d.suspicious, 1)
			slog.WarnContext(r.Context(), "Suspicious request",
				"component", "security",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", d.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

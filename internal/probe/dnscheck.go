package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServFail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
	DNSLiteralIP   = "IP_LITERAL"
)

type DNSStatus struct {
	Host          string
	IPs           []net.IP
	CNAME         string
	Nameservers   []string
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// CheckDNS classifies host so a transport failure can be told apart from a
// typo in the project URL.
func CheckDNS(ctx context.Context, host string) DNSStatus {
	s := DNSStatus{Host: strings.TrimSpace(host)}
	if s.Host == "" || strings.Contains(s.Host, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(s.Host); ip != nil {
		s.IPs = []net.IP{ip}
		s.Class = DNSLiteralIP
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", s.Host)
	switch {
	case err == nil && len(ips) > 0:
		s.IPs = ips
		s.Class = DNSResolves
	case err != nil:
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServFail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, s.Host); err == nil && !strings.EqualFold(cname, s.Host+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if s.Class != DNSResolves {
		if ns, err := r.LookupNS(ctx, s.Host); err == nil && len(ns) > 0 {
			for _, n := range ns {
				s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
			}
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = DNSServFail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}

// hostOf pulls the hostname from a base URL.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

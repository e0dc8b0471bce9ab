package store

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// dnslinkPrefix is the TXT payload prefix for a content binding.
	dnslinkPrefix = "dnslink=/aipfs/"

	// defaultUpstream is the default recursive resolver for DNSSEC queries.
	defaultUpstream = "8.8.8.8:53"

	// dnssecTimeout is the timeout for DNSSEC queries.
	dnssecTimeout = 10 * time.Second

	// edns0BufSize is the EDNS0 UDP buffer size.
	edns0BufSize = 4096
)

// DNSResolver looks up TXT records. NetResolver is the system default;
// DNSSECResolver adds authenticated-data validation.
type DNSResolver interface {
	LookupTXT(name string) ([]string, error)
}

// ResolveDNSLink resolves a human-readable name to a content id through the
// _dnslink TXT convention: a record "dnslink=/aipfs/<cid>" on
// _dnslink.<name>. The first well-formed binding wins.
func ResolveDNSLink(resolver DNSResolver, name string) (string, error) {
	if resolver == nil {
		resolver = &NetResolver{}
	}
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrDNSLookupFailed)
	}

	txts, err := resolver.LookupTXT("_dnslink." + name)
	if err != nil {
		return "", err
	}

	for _, txt := range txts {
		if cid := strings.TrimPrefix(txt, dnslinkPrefix); cid != txt && cid != "" {
			return cid, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDNSLink, name)
}

// NetResolver resolves through the system resolver without DNSSEC checks.
type NetResolver struct{}

func (NetResolver) LookupTXT(name string) ([]string, error) {
	txts, err := net.LookupTXT(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDNSLookupFailed, name, err)
	}
	if len(txts) == 0 {
		return nil, fmt.Errorf("%w: no TXT records for %s", ErrDNSLookupFailed, name)
	}
	return txts, nil
}

// DNSSECResolver implements DNSResolver with DNSSEC validation. It relies on
// the upstream recursive resolver to validate signatures and requires the AD
// (Authenticated Data) flag on responses.
type DNSSECResolver struct {
	// Upstream is the recursive resolver address (e.g., "8.8.8.8:53").
	Upstream string
}

// NewDNSSECResolver creates a DNSSECResolver. An empty upstream defaults to
// "8.8.8.8:53".
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream}
}

// LookupTXT looks up TXT records with DNSSEC validation.
func (r *DNSSECResolver) LookupTXT(name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true) // DO (DNSSEC OK) flag

	client := &dns.Client{Timeout: dnssecTimeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s TXT: %w", ErrDNSLookupFailed, name, err)
	}

	if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("%w: query %s TXT: rcode %s",
			ErrDNSLookupFailed, name, dns.RcodeToString[resp.Rcode])
	}

	// Require the AD flag; the recursive resolver validated DNSSEC.
	if !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: AD flag not set for %s TXT", ErrDNSSECValidationFailed, name)
	}

	var txts []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			// TXT records may be split into multiple strings; join them.
			txts = append(txts, strings.Join(txt.Txt, ""))
		}
	}
	if len(txts) == 0 {
		return nil, fmt.Errorf("%w: no TXT records for %s", ErrDNSLookupFailed, name)
	}
	return txts, nil
}

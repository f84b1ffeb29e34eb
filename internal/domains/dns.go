package domains

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// RecordPrefix is the label owners create the TXT record under.
	RecordPrefix = "_biolink"
	tokenPrefix  = "biolink-verify="
)

// RecordName is the TXT record that proves ownership of domain.
func RecordName(domain string) string {
	return RecordPrefix + "." + strings.TrimSuffix(domain, ".")
}

// RecordValue is the TXT value expected for token.
func RecordValue(token string) string {
	return tokenPrefix + token
}

// DNSVerifier checks ownership TXT records against one resolver.
type DNSVerifier struct {
	resolver string
	client   *dns.Client
}

func NewDNSVerifier(resolver string) *DNSVerifier {
	return &DNSVerifier{
		resolver: resolver,
		client:   &dns.Client{Timeout: 5 * time.Second},
	}
}

// Verify reports whether the domain publishes the expected token. A missing
// record is a negative result, not an error.
func (v *DNSVerifier) Verify(ctx context.Context, domain, token string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(RecordName(domain)), dns.TypeTXT)
	msg.RecursionDesired = true

	resp, _, err := v.client.ExchangeContext(ctx, msg, v.resolver)
	if err != nil {
		return false, fmt.Errorf("querying %s: %w", RecordName(domain), err)
	}
	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return false, nil
	default:
		return false, fmt.Errorf("querying %s: %s", RecordName(domain), dns.RcodeToString[resp.Rcode])
	}

	want := RecordValue(token)
	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		if strings.Join(txt.Txt, "") == want {
			return true, nil
		}
	}
	return false, nil
}

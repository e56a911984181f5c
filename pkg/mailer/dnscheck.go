package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrDNSLookupFailed = errors.New("mailer: dns lookup failed")
	ErrNoMXRecords     = errors.New("mailer: sender domain has no mx records")
	ErrNoSPFRecord     = errors.New("mailer: sender domain has no spf record")
	ErrInvalidDomain   = errors.New("mailer: invalid sender domain")
)

// VerifySenderDomain checks that the domain of the sender address is set up
// to send mail: it must resolve MX records and publish an SPF policy.
// Intended for host admin flows that validate a configured from address
// before deliveries are enabled; delivery itself never calls this.
func VerifySenderDomain(ctx context.Context, address string) error {
	domain, err := senderDomain(address)
	if err != nil {
		return err
	}

	resolver := &net.Resolver{}

	mx, err := resolver.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return fmt.Errorf("%w: %s", ErrNoMXRecords, domain)
		}
		return fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
	}
	if len(mx) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMXRecords, domain)
	}

	records, err := resolver.LookupTXT(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return fmt.Errorf("%w: %s", ErrNoSPFRecord, domain)
		}
		return fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
	}
	for _, record := range records {
		if strings.HasPrefix(strings.TrimSpace(record), "v=spf1") {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrNoSPFRecord, domain)
}

// senderDomain extracts the normalized domain from a bare or display-form
// email address.
func senderDomain(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrInvalidDomain
	}

	// Accept "Name <user@example.com>" as well as bare addresses.
	if start := strings.LastIndex(address, "<"); start != -1 {
		end := strings.LastIndex(address, ">")
		if end <= start {
			return "", fmt.Errorf("%w: %s", ErrInvalidDomain, address)
		}
		address = address[start+1 : end]
	}

	at := strings.LastIndex(address, "@")
	if at == -1 || at == len(address)-1 {
		return "", fmt.Errorf("%w: %s", ErrInvalidDomain, address)
	}

	return strings.ToLower(strings.TrimSpace(address[at+1:])), nil
}

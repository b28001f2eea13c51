package dnsverify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrDNSLookupFailed   = errors.New("dns lookup failed")
	ErrDomainNotVerified = errors.New("domain not verified")
	ErrTXTRecordNotFound = errors.New("txt record not found")
	ErrInvalidInput      = errors.New("invalid domain or token")
)

// Resolver looks up TXT records. *net.Resolver satisfies it.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// VerifyTXT checks that one of the domain's TXT records contains token.
func VerifyTXT(ctx context.Context, r Resolver, domain, token string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	token = strings.TrimSpace(token)
	if domain == "" || token == "" {
		return ErrInvalidInput
	}

	records, err := r.LookupTXT(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return fmt.Errorf("%w: %s", ErrTXTRecordNotFound, domain)
		}
		return fmt.Errorf("%w: %v", ErrDNSLookupFailed, err)
	}

	for _, record := range records {
		if strings.Contains(record, token) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no TXT record containing %q", ErrDomainNotVerified, domain, token)
}

// DomainOf returns the domain part of an email address.
func DomainOf(email string) string {
	_, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok {
		return ""
	}
	return domain
}

// SenderDomainCheck returns a readiness check verifying the sender's domain
// with the default resolver.
func SenderDomainCheck(senderEmail, token string) func(context.Context) error {
	return senderDomainCheck(net.DefaultResolver, senderEmail, token)
}

func senderDomainCheck(r Resolver, senderEmail, token string) func(context.Context) error {
	domain := DomainOf(senderEmail)
	return func(ctx context.Context) error {
		return VerifyTXT(ctx, r, domain, token)
	}
}

// Package dnsverify checks that a sender domain publishes an expected TXT
// record, such as the SPF include required by the email provider.
//
//	check := dnsverify.SenderDomainCheck("no-reply@example.com", "include:_spf.mailersend.net")
//	err := check(ctx)
//
// Errors wrap ErrInvalidInput, ErrTXTRecordNotFound, ErrDNSLookupFailed or
// ErrDomainNotVerified.
package dnsverify

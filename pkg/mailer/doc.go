// Package mailer defines the outbound message boundary between the delivery
// engine and mail providers.
//
// A Message is a fully-composed email ready for transport. The Sender
// interface is the only capability the delivery engine needs from a provider;
// adapters for Resend (mailer/resend) and plain SMTP (mailer/smtp) are
// included, and hosts can implement Sender for any other provider.
//
// Display names pass through FormatAddress, which strips CR/LF and control
// characters before composing the RFC 5322 display-address form, so a
// hostile name stored in the CMS cannot inject additional headers.
package mailer

// Package mail delivers one-time code messages over SMTP.
//
// A [Gateway] owns a primary and an optional fallback [Transport]. Delivery
// tries the primary once and, on any transport failure, the fallback once.
// There is no retry loop. [Gateway.Probe] dials every transport without
// sending anything.
//
// [SMTPTransport] is built on github.com/wneessen/go-mail and supports
// implicit TLS (port 465 style) and STARTTLS upgrade (port 587 style).
// [LogTransport] writes messages to a zap logger and is meant for local
// development only.
package mail

// Package jwt signs and parses registration tickets: short-lived tokens
// that carry the registration session id between requests. A ticket proves
// which session a request belongs to; it grants nothing by itself, since
// all registration state lives server-side under that id.
package jwt

// Package otp computes time-based one-time passwords (RFC 6238) for stored
// authenticator accounts.
//
// The engine is pure: it reads the secret, the parameters and a timestamp and
// returns the code together with the fraction of the period still remaining.
// HMAC and dynamic truncation are delegated to github.com/pquerna/otp/hotp.
package otp

// Package migration decodes otpauth-migration://offline?data=... payloads
// produced by the "export accounts" screen of Google Authenticator.
//
// Only the handful of fields needed to rebuild accounts are read. Everything
// else is skipped by wire type, so the decoder is a small recursive-descent
// reader rather than a general protobuf implementation.
package migration

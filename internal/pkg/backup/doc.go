// Package backup holds the interchange formats for account lists: the
// password-encrypted JSON container, plain CSV and third-party JSON exports.
//
// The container layout is {v, salt, iv, data} with base64 byte fields. The key
// is PBKDF2-HMAC-SHA256 over the password (100,000 rounds, 16-byte salt) and
// the payload is sealed with AES-256-GCM under a 12-byte IV and no
// additional data.
package backup

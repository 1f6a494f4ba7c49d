// Package credentials provides core.CredentialProvider implementations backed
// by the environment, the encrypted CLI keystore and Redis.
//
// Providers read the token on every call so a rotated token takes effect on
// the next request without restarting the process.
package credentials

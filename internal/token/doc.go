// Package token caches the OAuth2 client-credentials bearer token used to
// call the Bot Framework connector API, refreshing it before expiry.
package token

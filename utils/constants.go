// File: utils/constants.go
package utils

// AuthSessionPrefix is the prefix used for Redis auth session keys.
const AuthSessionPrefix = "authSession:"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// MinutesPerDay bounds minute-of-day values.
const MinutesPerDay = 24 * 60

// Package auth provides operator authentication for the Ostiary admin
// API: Argon2id password hashing, HS256 JWT access tokens, and a
// two-tier role model (operator, admin). Operators manage the access
// configuration; they are not credential holders walking through doors.
package auth

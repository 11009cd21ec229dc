// Package database provides SQLite storage for the stego server.
//
// It handles storage and retrieval of:
//   - User accounts (name, unique email, bcrypt password hash)
//   - Authentication sessions (SHA-256 hashed tokens with expiry)
//   - The registry of encoded artifacts published to the results area
//
// The database uses WAL mode for concurrent readers and creates its schema
// on first open.
package database

// Command stegoadmin inspects and repairs the stego server's account
// database from a shell inside the container.
//
// Usage:
//
//	stegoadmin <command> [args]
//
// Commands:
//
//	list            List registered accounts.
//	reset <email>   Prompt for a new password for the account. All of its
//	                sessions are invalidated.
//	status          Print account, session and artifact counts.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /data/db)
package main

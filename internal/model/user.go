package model

// User represents a purchaser record as stored in the `users` table.  Only
// the columns needed to address a ticket delivery are loaded; credentials
// live with the identity provider that issues access tokens.
//
// Fields:
//  ID    – primary key identifier of the user.
//  Name  – display name used in the greeting of dispatched mail.
//  Email – delivery address for ticket artifacts.
type User struct {
	ID    string // users.id
	Name  string // users.name
	Email string // users.email
}

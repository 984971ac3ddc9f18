package domain

import "context"

// Storage is the persistence contract both backends satisfy. Identifiers are
// assigned exclusively by the backend on AddContact; callers must not assume
// a value before a successful create.
//
// GetAllContacts and FindContacts have no error return: a backend failure
// yields an empty result, with the cause logged and retained in LastError.
type Storage interface {
	// AddContact persists a new contact all-or-nothing and writes the
	// assigned identifier back into it.
	AddContact(ctx context.Context, contact *Contact) error
	// UpdateContact replaces the stored record for id with the supplied
	// fields and phone set. Full replacement, not a merge.
	UpdateContact(ctx context.Context, id int64, contact *Contact) error
	// DeleteContact removes the contact and all its phone numbers.
	DeleteContact(ctx context.Context, id int64) error
	// GetAllContacts returns every stored contact in backend-natural order,
	// each with its full phone list.
	GetAllContacts(ctx context.Context) []*Contact
	// FindContacts returns contacts whose last name, first name, email or
	// any phone number contains pattern, case-insensitively. An empty
	// pattern matches every contact.
	FindContacts(ctx context.Context, pattern string) []*Contact
	// LastError returns the message recorded by the most recent failed
	// operation. It is not reset by later successes.
	LastError() string
}

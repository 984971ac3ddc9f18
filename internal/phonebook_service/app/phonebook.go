package app

import (
	"context"
	"log/slog"

	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/domain"
)

// PhoneBook is the coordinator callers use instead of talking to a storage
// backend directly. It owns exactly one Storage for the process lifetime and
// republishes the backend's last-error string so callers never read backend
// state themselves.
type PhoneBook struct {
	storage   domain.Storage
	logger    *slog.Logger
	lastError string
}

// NewPhoneBook wraps the given backend. The backend choice happens at
// startup; there is no re-selection at runtime.
func NewPhoneBook(storage domain.Storage, logger *slog.Logger) *PhoneBook {
	return &PhoneBook{storage: storage, logger: logger.With("component", "phonebook")}
}

// AddContact forwards to the backend; on failure the backend's last-error is
// captured before the error is returned.
func (p *PhoneBook) AddContact(ctx context.Context, contact *domain.Contact) error {
	if err := p.storage.AddContact(ctx, contact); err != nil {
		p.lastError = p.storage.LastError()
		p.logger.ErrorContext(ctx, "Failed to add contact", "error", err)
		return err
	}
	return nil
}

// UpdateContact forwards to the backend; on failure the backend's last-error
// is captured before the error is returned.
func (p *PhoneBook) UpdateContact(ctx context.Context, id int64, contact *domain.Contact) error {
	if err := p.storage.UpdateContact(ctx, id, contact); err != nil {
		p.lastError = p.storage.LastError()
		p.logger.ErrorContext(ctx, "Failed to update contact", "error", err, "contact_id", id)
		return err
	}
	return nil
}

// DeleteContact forwards to the backend; on failure the backend's last-error
// is captured before the error is returned.
func (p *PhoneBook) DeleteContact(ctx context.Context, id int64) error {
	if err := p.storage.DeleteContact(ctx, id); err != nil {
		p.lastError = p.storage.LastError()
		p.logger.ErrorContext(ctx, "Failed to delete contact", "error", err, "contact_id", id)
		return err
	}
	return nil
}

// GetContacts forwards to the backend without transformation.
func (p *PhoneBook) GetContacts(ctx context.Context) []*domain.Contact {
	return p.storage.GetAllContacts(ctx)
}

// FindContacts forwards to the backend without transformation.
func (p *PhoneBook) FindContacts(ctx context.Context, pattern string) []*domain.Contact {
	return p.storage.FindContacts(ctx, pattern)
}

// LastError returns the message captured from the most recent failed
// mutating call.
func (p *PhoneBook) LastError() string {
	return p.lastError
}

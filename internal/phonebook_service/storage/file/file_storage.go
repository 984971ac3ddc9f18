package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/domain"
)

// FileStorage implements domain.Storage over a single JSON document holding
// the whole contact collection. Every mutation loads the collection, applies
// one change in memory and rewrites the file; the rewrite goes through a temp
// file and an atomic rename so a failed write never leaves a half-written
// store behind.
type FileStorage struct {
	path      string
	logger    *slog.Logger
	nextID    int64
	lastError string
}

type phoneDocument struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type contactDocument struct {
	ID         int64           `json:"id"`
	LastName   string          `json:"lastName"`
	FirstName  string          `json:"firstName"`
	MiddleName string          `json:"middleName"`
	BirthDate  string          `json:"birthDate"`
	Address    string          `json:"address"`
	Email      string          `json:"email"`
	Phones     []phoneDocument `json:"phones"`
}

// NewFileStorage opens the store at path. A missing file is an empty store.
// The id counter is seeded to one past the highest id found in the file, so
// assignment stays monotonic across process restarts without a separate
// counter file. An unreadable or malformed existing file is recorded in the
// last-error string; the store then behaves as empty until the file is fixed.
func NewFileStorage(path string, logger *slog.Logger) *FileStorage {
	s := &FileStorage{
		path:   path,
		logger: logger.With("component", "contact_storage_file"),
		nextID: 1,
	}
	contacts, err := s.load()
	if err != nil {
		s.logger.Warn("Could not read existing contacts file", "error", err, "path", path)
		return s
	}
	for _, contact := range contacts {
		if contact.ID() >= s.nextID {
			s.nextID = contact.ID() + 1
		}
	}
	return s
}

// AddContact assigns the next running id, appends the contact to the
// collection and rewrites the file. The id is set on a stored copy and only
// written back into the caller's contact once the rewrite has succeeded, so a
// failed save never leaves the caller holding an id that was not persisted.
func (s *FileStorage) AddContact(ctx context.Context, contact *domain.Contact) error {
	contacts, err := s.load()
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading contacts for add", "error", err)
		return err
	}

	id := s.nextID
	stored := *contact
	stored.SetID(id)
	contacts = append(contacts, &stored)

	if err := s.save(contacts); err != nil {
		s.logger.ErrorContext(ctx, "Error saving contacts after add", "error", err)
		return err
	}

	contact.SetID(id)
	s.nextID++
	s.logger.InfoContext(ctx, "Contact created", "contact_id", id)
	return nil
}

// UpdateContact replaces the stored contact with the matching id. A missing
// id fails with ErrNotFound and leaves the file untouched.
func (s *FileStorage) UpdateContact(ctx context.Context, id int64, contact *domain.Contact) error {
	contacts, err := s.load()
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading contacts for update", "error", err)
		return err
	}

	index := indexOf(contacts, id)
	if index < 0 {
		s.logger.WarnContext(ctx, "Contact not found for update", "contact_id", id)
		return s.fail(domain.ErrNotFound)
	}

	contact.SetID(id)
	contacts[index] = contact

	if err := s.save(contacts); err != nil {
		s.logger.ErrorContext(ctx, "Error saving contacts after update", "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "Contact updated", "contact_id", id)
	return nil
}

// DeleteContact removes the contact with the matching id. A missing id fails
// with ErrNotFound and leaves the file untouched.
func (s *FileStorage) DeleteContact(ctx context.Context, id int64) error {
	contacts, err := s.load()
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading contacts for delete", "error", err)
		return err
	}

	index := indexOf(contacts, id)
	if index < 0 {
		s.logger.WarnContext(ctx, "Contact not found for delete", "contact_id", id)
		return s.fail(domain.ErrNotFound)
	}

	contacts = append(contacts[:index], contacts[index+1:]...)

	if err := s.save(contacts); err != nil {
		s.logger.ErrorContext(ctx, "Error saving contacts after delete", "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "Contact deleted", "contact_id", id)
	return nil
}

// GetAllContacts returns the collection in file order. Failures yield an
// empty result with the cause retained in the last-error string.
func (s *FileStorage) GetAllContacts(ctx context.Context) []*domain.Contact {
	contacts, err := s.load()
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading contacts", "error", err)
		return nil
	}
	return contacts
}

// FindContacts scans the collection for contacts whose last name, first name,
// email or any phone number contains pattern, case-insensitively. An empty
// pattern matches everything. Returned contacts carry their full phone lists.
func (s *FileStorage) FindContacts(ctx context.Context, pattern string) []*domain.Contact {
	contacts, err := s.load()
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading contacts for search", "error", err)
		return nil
	}
	if pattern == "" {
		return contacts
	}

	needle := strings.ToLower(pattern)
	var results []*domain.Contact
	for _, contact := range contacts {
		if contactMatches(contact, needle) {
			results = append(results, contact)
		}
	}
	return results
}

// LastError returns the message of the most recent failed operation.
func (s *FileStorage) LastError() string {
	return s.lastError
}

func contactMatches(contact *domain.Contact, needle string) bool {
	if strings.Contains(strings.ToLower(contact.LastName()), needle) ||
		strings.Contains(strings.ToLower(contact.FirstName()), needle) ||
		strings.Contains(strings.ToLower(contact.Email()), needle) {
		return true
	}
	for _, phone := range contact.PhoneNumbers() {
		if strings.Contains(strings.ToLower(phone.Number()), needle) {
			return true
		}
	}
	return false
}

func indexOf(contacts []*domain.Contact, id int64) int {
	for i, contact := range contacts {
		if contact.ID() == id {
			return i
		}
	}
	return -1
}

func (s *FileStorage) load() ([]*domain.Contact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// The file not existing yet is a valid empty store.
			return nil, nil
		}
		return nil, s.fail(fmt.Errorf("open contacts file for reading: %w", err))
	}

	var documents []contactDocument
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, s.fail(fmt.Errorf("malformed contacts file: %w", err))
	}

	contacts := make([]*domain.Contact, 0, len(documents))
	for _, doc := range documents {
		contacts = append(contacts, documentToContact(doc))
	}
	return contacts, nil
}

func (s *FileStorage) save(contacts []*domain.Contact) error {
	documents := make([]contactDocument, 0, len(contacts))
	for _, contact := range contacts {
		documents = append(documents, contactToDocument(contact))
	}

	data, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return s.fail(fmt.Errorf("encode contacts: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return s.fail(fmt.Errorf("open contacts file for writing: %w", err))
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return s.fail(fmt.Errorf("write contacts file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return s.fail(fmt.Errorf("close contacts file: %w", err))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return s.fail(fmt.Errorf("replace contacts file: %w", err))
	}
	return nil
}

func contactToDocument(contact *domain.Contact) contactDocument {
	doc := contactDocument{
		ID:         contact.ID(),
		LastName:   contact.LastName(),
		FirstName:  contact.FirstName(),
		MiddleName: contact.MiddleName(),
		BirthDate:  contact.BirthDate(),
		Address:    contact.Address(),
		Email:      contact.Email(),
		Phones:     []phoneDocument{},
	}
	for _, phone := range contact.PhoneNumbers() {
		doc.Phones = append(doc.Phones, phoneDocument{Number: phone.Number(), Type: phone.Kind()})
	}
	return doc
}

func documentToContact(doc contactDocument) *domain.Contact {
	contact := domain.NewContact()
	contact.SetID(doc.ID)
	contact.SetLastName(doc.LastName)
	contact.SetFirstName(doc.FirstName)
	contact.SetMiddleName(doc.MiddleName)
	contact.SetBirthDate(doc.BirthDate)
	contact.SetAddress(doc.Address)
	contact.SetEmail(doc.Email)
	for _, phone := range doc.Phones {
		contact.AddPhoneNumber(domain.NewPhoneNumber(phone.Number, phone.Type))
	}
	return contact
}

func (s *FileStorage) fail(err error) error {
	s.lastError = err.Error()
	return err
}

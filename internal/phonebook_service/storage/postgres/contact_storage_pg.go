package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/domain"
)

// DB is the slice of pgxpool.Pool the storage needs. It is satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ContactStorage implements domain.Storage over the two-table relational
// schema. Every multi-statement write runs inside a single transaction so the
// phone_numbers rows are always exactly consistent with their contact row.
type ContactStorage struct {
	db        DB
	logger    *slog.Logger
	lastError string
}

func NewContactStorage(db DB, logger *slog.Logger) *ContactStorage {
	return &ContactStorage{db: db, logger: logger.With("component", "contact_storage_pg")}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		middle_name TEXT,
		birth_date TEXT,
		address TEXT,
		email TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS phone_numbers (
		id BIGSERIAL PRIMARY KEY,
		contact_id BIGINT NOT NULL REFERENCES contacts(id),
		number TEXT NOT NULL,
		type TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(first_name, last_name)`,
	`CREATE INDEX IF NOT EXISTS idx_phone_numbers_contact ON phone_numbers(contact_id)`,
}

// InitSchema creates the contacts and phone_numbers tables and their lookup
// indexes. The table and column names are part of the on-disk contract.
func (s *ContactStorage) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			s.logger.ErrorContext(ctx, "Error initializing schema", "error", err)
			return s.fail(fmt.Errorf("init schema: %w", err))
		}
	}
	return nil
}

const insertContactQuery = `
	INSERT INTO contacts (first_name, last_name, middle_name, birth_date, address, email)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

const insertPhoneQuery = `
	INSERT INTO phone_numbers (contact_id, number, type)
	VALUES ($1, $2, $3)
`

// AddContact inserts the contact row, captures the generated id and inserts
// one phone row per number, all in one transaction. On success the assigned
// id is written back into the contact.
func (s *ContactStorage) AddContact(ctx context.Context, contact *domain.Contact) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error starting transaction for add", "error", err)
		return s.fail(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, insertContactQuery,
		contact.FirstName(), contact.LastName(), contact.MiddleName(),
		contact.BirthDate(), contact.Address(), contact.Email(),
	).Scan(&id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting contact row", "error", err)
		return s.fail(fmt.Errorf("insert contact: %w", err))
	}

	for _, phone := range contact.PhoneNumbers() {
		if _, err := tx.Exec(ctx, insertPhoneQuery, id, phone.Number(), phone.Kind()); err != nil {
			s.logger.ErrorContext(ctx, "Error inserting phone number row", "error", err, "contact_id", id)
			return s.fail(fmt.Errorf("insert phone number: %w", err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Error committing add", "error", err)
		return s.fail(fmt.Errorf("commit: %w", err))
	}

	contact.SetID(id)
	s.logger.InfoContext(ctx, "Contact created", "contact_id", id)
	return nil
}

const updateContactQuery = `
	UPDATE contacts
	SET first_name = $1, last_name = $2, middle_name = $3, birth_date = $4, address = $5, email = $6
	WHERE id = $7
`

// UpdateContact replaces the contact row for id and rebuilds its phone set:
// all existing phone rows are deleted and the new set inserted, in one
// transaction. On success the id is written back into the contact. The update
// does not verify the id exists; updating a missing id affects zero rows and
// reports success.
func (s *ContactStorage) UpdateContact(ctx context.Context, id int64, contact *domain.Contact) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error starting transaction for update", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, updateContactQuery,
		contact.FirstName(), contact.LastName(), contact.MiddleName(),
		contact.BirthDate(), contact.Address(), contact.Email(), id,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating contact row", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("update contact: %w", err))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM phone_numbers WHERE contact_id = $1`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old phone numbers", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("delete phone numbers: %w", err))
	}

	for _, phone := range contact.PhoneNumbers() {
		if _, err := tx.Exec(ctx, insertPhoneQuery, id, phone.Number(), phone.Kind()); err != nil {
			s.logger.ErrorContext(ctx, "Error inserting phone number row", "error", err, "contact_id", id)
			return s.fail(fmt.Errorf("insert phone number: %w", err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Error committing update", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("commit: %w", err))
	}

	contact.SetID(id)
	s.logger.InfoContext(ctx, "Contact updated", "contact_id", id)
	return nil
}

// DeleteContact removes the phone rows and then the contact row in one
// transaction.
func (s *ContactStorage) DeleteContact(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error starting transaction for delete", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM phone_numbers WHERE contact_id = $1`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting phone numbers", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("delete phone numbers: %w", err))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting contact row", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("delete contact: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Error committing delete", "error", err, "contact_id", id)
		return s.fail(fmt.Errorf("commit: %w", err))
	}

	s.logger.InfoContext(ctx, "Contact deleted", "contact_id", id)
	return nil
}

const getAllQuery = `
	SELECT c.id, c.last_name, c.first_name, c.middle_name, c.birth_date, c.address, c.email,
	       p.number, p.type
	FROM contacts c
	LEFT JOIN phone_numbers p ON c.id = p.contact_id
	ORDER BY c.id, p.id
`

// GetAllContacts runs one outer-join query ordered by contact id and folds
// consecutive rows sharing an id into a single contact with an accumulating
// phone list. A contact without phones produces one row with null phone
// columns and no phone entry. Failures yield an empty result.
func (s *ContactStorage) GetAllContacts(ctx context.Context) []*domain.Contact {
	rows, err := s.db.Query(ctx, getAllQuery)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing contacts", "error", err)
		s.fail(fmt.Errorf("query contacts: %w", err))
		return nil
	}
	defer rows.Close()

	var contacts []*domain.Contact
	var current *domain.Contact
	currentID := domain.UnsavedID

	for rows.Next() {
		var (
			id                                    int64
			lastName, firstName                   string
			middleName, birthDate, address, email sql.NullString
			number, kind                          sql.NullString
		)
		if err := rows.Scan(&id, &lastName, &firstName, &middleName, &birthDate, &address, &email, &number, &kind); err != nil {
			s.logger.ErrorContext(ctx, "Error scanning contact row", "error", err)
			s.fail(fmt.Errorf("scan contact row: %w", err))
			return nil
		}

		if current == nil || id != currentID {
			if current != nil {
				contacts = append(contacts, current)
			}
			current = domain.NewContact()
			currentID = id
			current.SetID(id)
			current.SetLastName(lastName)
			current.SetFirstName(firstName)
			current.SetMiddleName(middleName.String)
			current.SetBirthDate(birthDate.String)
			current.SetAddress(address.String)
			current.SetEmail(email.String)
		}

		if number.Valid {
			current.AddPhoneNumber(domain.NewPhoneNumber(number.String, kind.String))
		}
	}
	if err := rows.Err(); err != nil {
		s.logger.ErrorContext(ctx, "Error iterating contact rows", "error", err)
		s.fail(fmt.Errorf("iterate contact rows: %w", err))
		return nil
	}

	if current != nil {
		contacts = append(contacts, current)
	}
	return contacts
}

const findQuery = `
	SELECT DISTINCT c.id, c.last_name, c.first_name, c.middle_name, c.birth_date, c.address, c.email
	FROM contacts c
	LEFT JOIN phone_numbers p ON c.id = p.contact_id
	WHERE c.first_name ILIKE $1
	   OR c.last_name ILIKE $1
	   OR c.email ILIKE $1
	   OR p.number ILIKE $1
	ORDER BY c.id
`

// FindContacts matches pattern as a case-insensitive substring against first
// name, last name, email and phone numbers. Join duplicates are collapsed by
// DISTINCT over the contact columns; phone lists are loaded per match.
func (s *ContactStorage) FindContacts(ctx context.Context, pattern string) []*domain.Contact {
	rows, err := s.db.Query(ctx, findQuery, "%"+pattern+"%")
	if err != nil {
		s.logger.ErrorContext(ctx, "Error searching contacts", "error", err, "pattern", pattern)
		s.fail(fmt.Errorf("search contacts: %w", err))
		return nil
	}
	defer rows.Close()

	var results []*domain.Contact
	for rows.Next() {
		var (
			id                                    int64
			lastName, firstName                   string
			middleName, birthDate, address, email sql.NullString
		)
		if err := rows.Scan(&id, &lastName, &firstName, &middleName, &birthDate, &address, &email); err != nil {
			s.logger.ErrorContext(ctx, "Error scanning search row", "error", err)
			s.fail(fmt.Errorf("scan search row: %w", err))
			return nil
		}
		contact := domain.NewContact()
		contact.SetID(id)
		contact.SetLastName(lastName)
		contact.SetFirstName(firstName)
		contact.SetMiddleName(middleName.String)
		contact.SetBirthDate(birthDate.String)
		contact.SetAddress(address.String)
		contact.SetEmail(email.String)
		results = append(results, contact)
	}
	if err := rows.Err(); err != nil {
		s.logger.ErrorContext(ctx, "Error iterating search rows", "error", err)
		s.fail(fmt.Errorf("iterate search rows: %w", err))
		return nil
	}

	for _, contact := range results {
		if err := s.loadPhoneNumbers(ctx, contact); err != nil {
			s.logger.WarnContext(ctx, "Skipping contact with unloadable phone numbers", "error", err, "contact_id", contact.ID())
		}
	}
	return results
}

func (s *ContactStorage) loadPhoneNumbers(ctx context.Context, contact *domain.Contact) error {
	rows, err := s.db.Query(ctx, `SELECT number, type FROM phone_numbers WHERE contact_id = $1 ORDER BY id`, contact.ID())
	if err != nil {
		return fmt.Errorf("query phone numbers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var number, kind string
		if err := rows.Scan(&number, &kind); err != nil {
			return fmt.Errorf("scan phone number: %w", err)
		}
		contact.AddPhoneNumber(domain.NewPhoneNumber(number, kind))
	}
	return rows.Err()
}

// ClearAll wipes both tables in one transaction. It is maintenance surface,
// not part of the Storage contract.
func (s *ContactStorage) ClearAll(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return s.fail(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM phone_numbers`); err != nil {
		return s.fail(fmt.Errorf("clear phone numbers: %w", err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM contacts`); err != nil {
		return s.fail(fmt.Errorf("clear contacts: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return s.fail(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// LastError returns the message of the most recent failed operation.
func (s *ContactStorage) LastError() string {
	return s.lastError
}

func (s *ContactStorage) fail(err error) error {
	s.lastError = err.Error()
	return err
}

package domain

import (
	"regexp"
	"strings"
	"time"
)

// UnsavedID marks a contact that has not been persisted yet. The active
// storage backend assigns the real identifier on create.
const UnsavedID int64 = -1

var (
	// First character must be an uppercase Latin or Cyrillic letter; the
	// rest may be letters, digits, whitespace or hyphen, but the name must
	// not end with a hyphen or whitespace. A single qualifying uppercase
	// letter is a valid name on its own.
	nameRegex = regexp.MustCompile(`^[А-ЯA-Z]([а-яА-Яa-zA-Z0-9\s-]*[^\s-])?$`)

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	dateShapeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

const birthDateLayout = "2006-01-02"

// Contact is the aggregate the storage backends persist: identity, validated
// name fields, optional birth date and email, a free-text address, and an
// ordered list of phone numbers the contact owns.
type Contact struct {
	id           int64
	firstName    string
	lastName     string
	middleName   string
	birthDate    string
	email        string
	address      string
	phoneNumbers []PhoneNumber
}

// NewContact returns an empty contact carrying the unsaved-id sentinel.
func NewContact() *Contact {
	return &Contact{id: UnsavedID}
}

func (c *Contact) ID() int64          { return c.id }
func (c *Contact) FirstName() string  { return c.firstName }
func (c *Contact) LastName() string   { return c.lastName }
func (c *Contact) MiddleName() string { return c.middleName }
func (c *Contact) BirthDate() string  { return c.birthDate }
func (c *Contact) Email() string      { return c.email }
func (c *Contact) Address() string    { return c.address }

// PhoneNumbers returns the contact's phone list in insertion order.
func (c *Contact) PhoneNumbers() []PhoneNumber { return c.phoneNumbers }

// SetID is called by storage backends when materializing or persisting a
// contact. Other callers must not assign identifiers.
func (c *Contact) SetID(id int64) { c.id = id }

// SetFirstName applies the name rule; on rejection the previous value is kept.
func (c *Contact) SetFirstName(name string) bool {
	if !ValidateName(name) {
		return false
	}
	c.firstName = name
	return true
}

// SetLastName applies the name rule; on rejection the previous value is kept.
func (c *Contact) SetLastName(name string) bool {
	if !ValidateName(name) {
		return false
	}
	c.lastName = name
	return true
}

// SetMiddleName accepts an empty value (the middle name is optional) and
// otherwise applies the same name rule as the other name fields.
func (c *Contact) SetMiddleName(name string) bool {
	if name != "" && !ValidateName(name) {
		return false
	}
	c.middleName = name
	return true
}

// SetBirthDate accepts an empty value or a valid YYYY-MM-DD date that is not
// in the future.
func (c *Contact) SetBirthDate(date string) bool {
	if !ValidateDate(date) {
		return false
	}
	c.birthDate = date
	return true
}

// SetEmail accepts an empty value (email is optional) or a well-formed address.
func (c *Contact) SetEmail(email string) bool {
	if !ValidateEmail(email) {
		return false
	}
	c.email = email
	return true
}

// SetAddress stores free text; no validation applies.
func (c *Contact) SetAddress(address string) {
	c.address = address
}

// AddPhoneNumber appends the number if it passes the strict phone rule.
// Invalid numbers are dropped silently so that transiently-built values can
// be offered without failing the whole contact.
func (c *Contact) AddPhoneNumber(p PhoneNumber) {
	if p.IsValid() {
		c.phoneNumbers = append(c.phoneNumbers, p)
	}
}

// SetPhoneNumbers replaces the whole phone list. The slice is copied so the
// contact keeps independent ownership.
func (c *Contact) SetPhoneNumbers(numbers []PhoneNumber) {
	c.phoneNumbers = make([]PhoneNumber, len(numbers))
	copy(c.phoneNumbers, numbers)
}

// ClearPhoneNumbers drops every phone number.
func (c *Contact) ClearPhoneNumbers() {
	c.phoneNumbers = nil
}

// ValidateName reports whether name (trimmed) is acceptable for the first,
// last or middle name fields. Empty names are rejected; optionality of the
// middle name is the setter's concern.
func ValidateName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	return nameRegex.MatchString(trimmed)
}

// ValidateEmail reports whether email (trimmed) is empty or matches the
// local@domain.tld shape.
func ValidateEmail(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return true
	}
	return emailRegex.MatchString(trimmed)
}

// ValidateDate reports whether date is empty or a calendar-valid YYYY-MM-DD
// value no later than today.
func ValidateDate(date string) bool {
	if date == "" {
		return true
	}
	if !dateShapeRegex.MatchString(date) {
		return false
	}
	parsed, err := time.Parse(birthDateLayout, date)
	if err != nil {
		return false
	}
	return !parsed.After(time.Now())
}

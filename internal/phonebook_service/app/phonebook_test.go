package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/domain"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) AddContact(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockStorage) UpdateContact(ctx context.Context, id int64, contact *domain.Contact) error {
	args := m.Called(ctx, id, contact)
	return args.Error(0)
}

func (m *MockStorage) DeleteContact(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) GetAllContacts(ctx context.Context) []*domain.Contact {
	args := m.Called(ctx)
	if contacts, ok := args.Get(0).([]*domain.Contact); ok {
		return contacts
	}
	return nil
}

func (m *MockStorage) FindContacts(ctx context.Context, pattern string) []*domain.Contact {
	args := m.Called(ctx, pattern)
	if contacts, ok := args.Get(0).([]*domain.Contact); ok {
		return contacts
	}
	return nil
}

func (m *MockStorage) LastError() string {
	return m.Called().String(0)
}

func newTestPhoneBook(t *testing.T) (*PhoneBook, *MockStorage) {
	t.Helper()
	storage := new(MockStorage)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPhoneBook(storage, logger), storage
}

func validContact(t *testing.T) *domain.Contact {
	t.Helper()
	c := domain.NewContact()
	require.True(t, c.SetLastName("Иванов"))
	require.True(t, c.SetFirstName("Иван"))
	return c
}

func TestPhoneBookAddContact(t *testing.T) {
	t.Run("forwards to the backend", func(t *testing.T) {
		phoneBook, storage := newTestPhoneBook(t)
		contact := validContact(t)

		storage.On("AddContact", mock.Anything, contact).Return(nil).Once()

		require.NoError(t, phoneBook.AddContact(context.Background(), contact))
		assert.Empty(t, phoneBook.LastError())
		storage.AssertExpectations(t)
	})

	t.Run("captures the backend last-error on failure", func(t *testing.T) {
		phoneBook, storage := newTestPhoneBook(t)
		contact := validContact(t)
		backendErr := errors.New("insert contact: disk full")

		storage.On("AddContact", mock.Anything, contact).Return(backendErr).Once()
		storage.On("LastError").Return(backendErr.Error()).Once()

		err := phoneBook.AddContact(context.Background(), contact)
		require.ErrorIs(t, err, backendErr)
		assert.Equal(t, backendErr.Error(), phoneBook.LastError())
		storage.AssertExpectations(t)
	})
}

func TestPhoneBookUpdateContact(t *testing.T) {
	phoneBook, storage := newTestPhoneBook(t)
	contact := validContact(t)

	storage.On("UpdateContact", mock.Anything, int64(5), contact).Return(domain.ErrNotFound).Once()
	storage.On("LastError").Return(domain.ErrNotFound.Error()).Once()

	err := phoneBook.UpdateContact(context.Background(), 5, contact)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.ErrNotFound.Error(), phoneBook.LastError())
	storage.AssertExpectations(t)
}

func TestPhoneBookDeleteContact(t *testing.T) {
	phoneBook, storage := newTestPhoneBook(t)

	storage.On("DeleteContact", mock.Anything, int64(3)).Return(nil).Once()

	require.NoError(t, phoneBook.DeleteContact(context.Background(), 3))
	storage.AssertExpectations(t)
}

func TestPhoneBookReads(t *testing.T) {
	phoneBook, storage := newTestPhoneBook(t)
	contacts := []*domain.Contact{validContact(t)}

	storage.On("GetAllContacts", mock.Anything).Return(contacts).Once()
	storage.On("FindContacts", mock.Anything, "иван").Return(contacts).Once()

	assert.Equal(t, contacts, phoneBook.GetContacts(context.Background()))
	assert.Equal(t, contacts, phoneBook.FindContacts(context.Background(), "иван"))
	storage.AssertExpectations(t)
}

func TestPhoneBookErrorSticksUntilNextFailure(t *testing.T) {
	phoneBook, storage := newTestPhoneBook(t)

	storage.On("DeleteContact", mock.Anything, int64(1)).Return(domain.ErrNotFound).Once()
	storage.On("LastError").Return(domain.ErrNotFound.Error()).Once()
	storage.On("DeleteContact", mock.Anything, int64(2)).Return(nil).Once()

	require.Error(t, phoneBook.DeleteContact(context.Background(), 1))
	require.NoError(t, phoneBook.DeleteContact(context.Background(), 2))

	// A successful call does not clear the recorded message.
	assert.Equal(t, domain.ErrNotFound.Error(), phoneBook.LastError())
	storage.AssertExpectations(t)
}

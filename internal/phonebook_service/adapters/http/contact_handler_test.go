package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/app"
	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/storage/file"
)

// The handler tests run against the file backend in a temp dir so the whole
// request path is exercised: decoding, validation, the facade and a real
// storage round-trip.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage := file.NewFileStorage(filepath.Join(t.TempDir(), "contacts.json"), logger)
	phoneBook := app.NewPhoneBook(storage, logger)
	handler := NewContactHandler(phoneBook, logger)

	server := httptest.NewServer(NewRouter(handler, logger))
	t.Cleanup(server.Close)
	return server
}

func postContact(t *testing.T, server *httptest.Server, body ContactRequest) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+"/contacts", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeContact(t *testing.T, resp *http.Response) ContactResponse {
	t.Helper()
	defer resp.Body.Close()
	var contact ContactResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contact))
	return contact
}

func decodeContacts(t *testing.T, resp *http.Response) []ContactResponse {
	t.Helper()
	defer resp.Body.Close()
	var contacts []ContactResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contacts))
	return contacts
}

func validRequest() ContactRequest {
	return ContactRequest{
		LastName:  "Иванов",
		FirstName: "Иван",
		BirthDate: "1990-05-01",
		Email:     "ivan@example.com",
		Address:   "Москва",
		Phones:    []PhonePayload{{Number: "+79121234567", Type: "mobile"}},
	}
}

func TestCreateContact(t *testing.T) {
	t.Run("valid request creates the contact", func(t *testing.T) {
		server := setupServer(t)

		resp := postContact(t, server, validRequest())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := decodeContact(t, resp)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, "Иванов", created.LastName)
		require.Len(t, created.Phones, 1)
		assert.Equal(t, "+79121234567", created.Phones[0].Number)
	})

	t.Run("leading 8 is canonicalized to +7", func(t *testing.T) {
		server := setupServer(t)

		req := validRequest()
		req.Phones = []PhonePayload{{Number: "8(912)123-45-67", Type: "home"}}

		resp := postContact(t, server, req)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := decodeContact(t, resp)
		require.Len(t, created.Phones, 1)
		assert.Equal(t, "+7(912)1234567", created.Phones[0].Number)
		assert.Equal(t, "home", created.Phones[0].Type)
	})

	t.Run("rejects a lowercase name", func(t *testing.T) {
		server := setupServer(t)

		req := validRequest()
		req.FirstName = "ivan"

		resp := postContact(t, server, req)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a phone number with spaces between groups", func(t *testing.T) {
		server := setupServer(t)

		req := validRequest()
		req.Phones = []PhonePayload{{Number: "+7 912 123 45 67"}}

		resp := postContact(t, server, req)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects an unknown phone type", func(t *testing.T) {
		server := setupServer(t)

		req := validRequest()
		req.Phones = []PhonePayload{{Number: "+79121234567", Type: "fax"}}

		resp := postContact(t, server, req)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a future birth date", func(t *testing.T) {
		server := setupServer(t)

		req := validRequest()
		req.BirthDate = "2999-01-01"

		resp := postContact(t, server, req)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		server := setupServer(t)

		resp, err := http.Post(server.URL+"/contacts", "application/json", bytes.NewReader([]byte("{broken")))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListContacts(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get(server.URL + "/contacts")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeContacts(t, resp))

	created := postContact(t, server, validRequest())
	require.Equal(t, http.StatusCreated, created.StatusCode)
	created.Body.Close()

	resp, err = http.Get(server.URL + "/contacts")
	require.NoError(t, err)
	contacts := decodeContacts(t, resp)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Иванов", contacts[0].LastName)
}

func TestSearchContacts(t *testing.T) {
	server := setupServer(t)

	created := postContact(t, server, validRequest())
	require.Equal(t, http.StatusCreated, created.StatusCode)
	created.Body.Close()

	resp, err := http.Get(server.URL + "/contacts/search?q=912")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeContacts(t, resp), 1)

	resp, err = http.Get(server.URL + "/contacts/search?q=nobody")
	require.NoError(t, err)
	assert.Empty(t, decodeContacts(t, resp))
}

func TestUpdateContactHTTP(t *testing.T) {
	t.Run("replaces an existing contact", func(t *testing.T) {
		server := setupServer(t)

		created := postContact(t, server, validRequest())
		require.Equal(t, http.StatusCreated, created.StatusCode)
		id := decodeContact(t, created).ID

		update := validRequest()
		update.FirstName = "Анна"
		payload, err := json.Marshal(update)
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPut, server.URL+"/contacts/1", bytes.NewReader(payload))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		updated := decodeContact(t, resp)
		assert.Equal(t, id, updated.ID)
		assert.Equal(t, "Анна", updated.FirstName)
	})

	t.Run("missing id reports not found", func(t *testing.T) {
		server := setupServer(t)

		payload, err := json.Marshal(validRequest())
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPut, server.URL+"/contacts/99", bytes.NewReader(payload))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("non-numeric id is a bad request", func(t *testing.T) {
		server := setupServer(t)

		req, err := http.NewRequest(http.MethodPut, server.URL+"/contacts/abc", bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteContactHTTP(t *testing.T) {
	t.Run("removes the contact", func(t *testing.T) {
		server := setupServer(t)

		created := postContact(t, server, validRequest())
		require.Equal(t, http.StatusCreated, created.StatusCode)
		created.Body.Close()

		req, err := http.NewRequest(http.MethodDelete, server.URL+"/contacts/1", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		list, err := http.Get(server.URL + "/contacts")
		require.NoError(t, err)
		assert.Empty(t, decodeContacts(t, list))
	})

	t.Run("missing id reports not found", func(t *testing.T) {
		server := setupServer(t)

		req, err := http.NewRequest(http.MethodDelete, server.URL+"/contacts/42", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRequestIDHeader(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get(server.URL + "/contacts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodGet, server.URL+"/contacts", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "fixed-id", resp.Header.Get("X-Request-ID"))
}

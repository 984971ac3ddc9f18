package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/app"
	"github.com/Neior4ik/PhoneBook/internal/phonebook_service/domain"
)

// PhonePayload mirrors the persisted phone object shape.
type PhonePayload struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

// ContactRequest is the body for create and update calls. Field names match
// the persisted JSON document so clients can round-trip records unchanged.
type ContactRequest struct {
	LastName   string         `json:"lastName"`
	FirstName  string         `json:"firstName"`
	MiddleName string         `json:"middleName"`
	BirthDate  string         `json:"birthDate"`
	Address    string         `json:"address"`
	Email      string         `json:"email"`
	Phones     []PhonePayload `json:"phones"`
}

// ContactResponse carries a materialized contact back to the caller.
type ContactResponse struct {
	ID         int64          `json:"id"`
	LastName   string         `json:"lastName"`
	FirstName  string         `json:"firstName"`
	MiddleName string         `json:"middleName"`
	BirthDate  string         `json:"birthDate"`
	Address    string         `json:"address"`
	Email      string         `json:"email"`
	Phones     []PhonePayload `json:"phones"`
}

// ContactHandler exposes the phone book over HTTP. It is a thin surface: all
// persistence behavior lives behind the facade, and request bodies are
// pre-validated field by field with the domain predicates before a Contact
// is ever built.
type ContactHandler struct {
	phoneBook *app.PhoneBook
	logger    *slog.Logger
}

func NewContactHandler(phoneBook *app.PhoneBook, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{phoneBook: phoneBook, logger: logger.With("handler", "contacts")}
}

// RegisterRoutes registers the contact routes with the given router.
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Get("/contacts", h.handleListContacts)
	r.Get("/contacts/search", h.handleSearchContacts)
	r.Post("/contacts", h.handleCreateContact)
	r.Put("/contacts/{contactID}", h.handleUpdateContact)
	r.Delete("/contacts/{contactID}", h.handleDeleteContact)
}

func (h *ContactHandler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts := h.phoneBook.GetContacts(r.Context())
	respondWithJSON(w, http.StatusOK, toResponses(contacts))
}

func (h *ContactHandler) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("q")
	contacts := h.phoneBook.FindContacts(r.Context(), pattern)
	respondWithJSON(w, http.StatusOK, toResponses(contacts))
}

func (h *ContactHandler) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode create contact request", "error", err)
		respondWithError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	if message, ok := validateRequest(&req); !ok {
		respondWithError(w, http.StatusBadRequest, message)
		return
	}

	contact := buildContact(&req)
	if err := h.phoneBook.AddContact(ctx, contact); err != nil {
		respondWithError(w, http.StatusInternalServerError, h.phoneBook.LastError())
		return
	}
	respondWithJSON(w, http.StatusCreated, toResponse(contact))
}

func (h *ContactHandler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid contact id")
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode update contact request", "error", err, "contact_id", id)
		respondWithError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}

	if message, ok := validateRequest(&req); !ok {
		respondWithError(w, http.StatusBadRequest, message)
		return
	}

	contact := buildContact(&req)
	if err := h.phoneBook.UpdateContact(ctx, id, contact); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, h.phoneBook.LastError())
			return
		}
		respondWithError(w, http.StatusInternalServerError, h.phoneBook.LastError())
		return
	}
	respondWithJSON(w, http.StatusOK, toResponse(contact))
}

func (h *ContactHandler) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid contact id")
		return
	}

	if err := h.phoneBook.DeleteContact(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, h.phoneBook.LastError())
			return
		}
		respondWithError(w, http.StatusInternalServerError, h.phoneBook.LastError())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateRequest applies the per-field predicates the way an input form
// would, before any Contact value exists. Phone numbers go through the
// form-level check, which accepts slightly different groupings than the
// strict per-number rule used at persistence time.
func validateRequest(req *ContactRequest) (string, bool) {
	if !domain.ValidateName(req.LastName) {
		return "invalid last name", false
	}
	if !domain.ValidateName(req.FirstName) {
		return "invalid first name", false
	}
	if req.MiddleName != "" && !domain.ValidateName(req.MiddleName) {
		return "invalid middle name", false
	}
	if !domain.ValidateDate(req.BirthDate) {
		return "invalid birth date", false
	}
	if !domain.ValidateEmail(req.Email) {
		return "invalid email", false
	}
	for _, phone := range req.Phones {
		if !domain.IsValidNumberForm(phone.Number) {
			return "invalid phone number: " + phone.Number, false
		}
		if phone.Type != "" && !domain.IsValidKind(phone.Type) {
			return "invalid phone type: " + phone.Type, false
		}
	}
	return "", true
}

func buildContact(req *ContactRequest) *domain.Contact {
	contact := domain.NewContact()
	contact.SetLastName(req.LastName)
	contact.SetFirstName(req.FirstName)
	contact.SetMiddleName(req.MiddleName)
	contact.SetBirthDate(req.BirthDate)
	contact.SetAddress(req.Address)
	contact.SetEmail(req.Email)
	for _, payload := range req.Phones {
		phone := domain.NewPhoneNumber(payload.Number, payload.Type)
		phone.SetNumber(payload.Number)
		contact.AddPhoneNumber(phone)
	}
	return contact
}

func toResponse(contact *domain.Contact) ContactResponse {
	resp := ContactResponse{
		ID:         contact.ID(),
		LastName:   contact.LastName(),
		FirstName:  contact.FirstName(),
		MiddleName: contact.MiddleName(),
		BirthDate:  contact.BirthDate(),
		Address:    contact.Address(),
		Email:      contact.Email(),
		Phones:     []PhonePayload{},
	}
	for _, phone := range contact.PhoneNumbers() {
		resp.Phones = append(resp.Phones, PhonePayload{Number: phone.Number(), Type: phone.Kind()})
	}
	return resp
}

func toResponses(contacts []*domain.Contact) []ContactResponse {
	responses := make([]ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		responses = append(responses, toResponse(contact))
	}
	return responses
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rmiranda-cl/user-registry/internal/auth"
	"github.com/rmiranda-cl/user-registry/internal/user"
)

type RegisterRequest struct {
	Name     string         `json:"name" validate:"required,notblank"`
	Email    string         `json:"email" validate:"required,email_format"`
	Password string         `json:"password" validate:"required,password_policy"`
	Phones   []PhoneRequest `json:"phones" validate:"required,min=1,dive"`
}

type PhoneRequest struct {
	Number      string `json:"number" validate:"required,notblank"`
	CityCode    string `json:"citycode" validate:"required,notblank"`
	CountryCode string `json:"countrycode" validate:"required,notblank"`
}

type PhoneResponse struct {
	ID          uuid.UUID `json:"id"`
	Number      string    `json:"number"`
	CityCode    string    `json:"citycode"`
	CountryCode string    `json:"countrycode"`
}

// UserResponse is the projection returned by every read operation. It
// carries everything on the record except the password hash.
type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phones    []PhoneResponse `json:"phones"`
	Created   time.Time       `json:"created"`
	Modified  time.Time       `json:"modified"`
	LastLogin time.Time       `json:"lastLogin"`
	Token     string          `json:"token"`
	IsActive  bool            `json:"isActive"`
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes mounts the API. Registration stays public; everything
// else under /api/users goes through RequireIdentity, which turns a
// missing or failed credential into 403/401.
func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/users/register", h.handleRegister)

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireIdentity)
		r.Get("/api/users/profile", h.handleGetProfile)
		r.Get("/api/users/all", h.handleListUsers)
		r.Delete("/api/users/profile", h.handleDeleteProfile)
	})

	router.Get("/health", handleHealth)
	router.HandleFunc("/error", handleError)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, statusMessage(http.StatusNotFound))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, statusMessage(http.StatusMethodNotAllowed))
	})
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Solicitud inválida - verifique los datos enviados")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithError(w, http.StatusBadRequest, formatValidationErrors(validationErrors))
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Error interno del servidor")
		}
		return
	}

	input := user.RegisterInput{
		Name:     requestPayload.Name,
		Email:    requestPayload.Email,
		Password: requestPayload.Password,
	}
	for _, p := range requestPayload.Phones {
		input.Phones = append(input.Phones, user.PhoneInput{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}

	createdUser, err := h.service.Register(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register user via service")

		var clientMessage string
		if errors.Is(err, user.ErrEmailExists) {
			clientMessage = "El correo ya registrado"
		} else {
			clientMessage = "Error interno del servidor"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, toUserResponse(createdUser))
}

func (h *UserHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No autorizado - token requerido")
		return
	}

	foundUser, err := h.service.GetByEmail(r.Context(), identity.Subject)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get user profile via service")

		var clientMessage string
		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "Usuario no encontrado"
		} else {
			clientMessage = "Error interno del servidor"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(foundUser))
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		respondWithError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	responsePayload := make([]UserResponse, 0, len(users))
	for i := range users {
		responsePayload = append(responsePayload, toUserResponse(&users[i]))
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *UserHandler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No autorizado - token requerido")
		return
	}

	err := h.service.DeleteByEmail(r.Context(), identity.Subject)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete user via service")

		var clientMessage string
		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "Usuario no encontrado"
		} else {
			clientMessage = "Error interno del servidor"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"mensaje": "Usuario eliminado exitosamente"})
}

func toUserResponse(u *user.User) UserResponse {
	phones := make([]PhoneResponse, 0, len(u.Phones))
	for _, p := range u.Phones {
		phones = append(phones, PhoneResponse{
			ID:          p.ID,
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}

	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phones:    phones,
		Created:   u.Created,
		Modified:  u.Modified,
		LastLogin: u.LastLogin,
		Token:     u.Token,
		IsActive:  u.IsActive,
	}
}

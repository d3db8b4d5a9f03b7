package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rmiranda-cl/user-registry/internal/auth"
	userHandler "github.com/rmiranda-cl/user-registry/internal/handler/http"
	"github.com/rmiranda-cl/user-registry/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input user.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ListAll(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserService) DeleteByEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

var testTokens = auth.NewTokenService([]byte("test-secret"), time.Hour)

// newTestRouter wires the router the same way main does: gate first,
// then the handler's routes with their RequireIdentity group.
func newTestRouter(service user.Service) chi.Router {
	router := chi.NewRouter()
	router.Use(auth.Gate(testTokens))
	userHandler.NewUserHandler(service).RegisterRoutes(router)
	return router
}

func validRegisterBody() map[string]interface{} {
	return map[string]interface{}{
		"name":     "Juan",
		"email":    "juan@x.org",
		"password": "Hunter2@123",
		"phones": []map[string]string{
			{"number": "1234567", "citycode": "1", "countrycode": "57"},
		},
	}
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonBody)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeMensaje(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body["mensaje"]
}

func TestUserHandler_Register_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	now := time.Now().UTC().Truncate(time.Second)
	storedUser := &user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         "Juan",
		Email:        "juan@x.org",
		PasswordHash: "$2a$10$hash",
		Phones: []user.Phone{
			{ID: uuid.Must(uuid.NewV4()), Number: "1234567", CityCode: "1", CountryCode: "57"},
		},
		Created:   now,
		Modified:  now,
		LastLogin: now,
		Token:     "signed-token",
		IsActive:  true,
	}

	mockService.On("Register", mock.Anything, mock.MatchedBy(func(input user.RegisterInput) bool {
		return input.Name == "Juan" &&
			input.Email == "juan@x.org" &&
			input.Password == "Hunter2@123" &&
			len(input.Phones) == 1
	})).Return(storedUser, nil).Once()

	rr := doJSON(t, router, http.MethodPost, "/api/users/register", validRegisterBody(), nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var response userHandler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	assert.Equal(t, storedUser.ID, response.ID)
	assert.Equal(t, "juan@x.org", response.Email)
	assert.NotEmpty(t, response.Token)
	assert.True(t, response.IsActive)

	expectedPhones := []userHandler.PhoneResponse{
		{ID: storedUser.Phones[0].ID, Number: "1234567", CityCode: "1", CountryCode: "57"},
	}
	if diff := cmp.Diff(expectedPhones, response.Phones); diff != "" {
		t.Errorf("phones mismatch (-want +got):\n%s", diff)
	}

	// The projection must never carry the password hash.
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), storedUser.PasswordHash)

	mockService.AssertExpectations(t)
}

func TestUserHandler_Register_DuplicateEmail(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	mockService.On("Register", mock.Anything, mock.AnythingOfType("user.RegisterInput")).
		Return(nil, user.ErrEmailExists).
		Once()

	rr := doJSON(t, router, http.MethodPost, "/api/users/register", validRegisterBody(), nil)

	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "El correo ya registrado", decodeMensaje(t, rr))
	mockService.AssertExpectations(t)
}

func TestUserHandler_Register_ValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(body map[string]interface{})
		wantInBody string
	}{
		{
			name:       "weak password",
			mutate:     func(b map[string]interface{}) { b["password"] = "abc" },
			wantInBody: "contraseña",
		},
		{
			name:       "password without special character",
			mutate:     func(b map[string]interface{}) { b["password"] = "Hunter2123" },
			wantInBody: "contraseña",
		},
		{
			name:       "invalid email",
			mutate:     func(b map[string]interface{}) { b["email"] = "not-an-email" },
			wantInBody: "correo",
		},
		{
			name:       "blank name",
			mutate:     func(b map[string]interface{}) { b["name"] = "   " },
			wantInBody: "nombre",
		},
		{
			name:       "no phones",
			mutate:     func(b map[string]interface{}) { b["phones"] = []map[string]string{} },
			wantInBody: "teléfono",
		},
		{
			name: "phone missing citycode",
			mutate: func(b map[string]interface{}) {
				b["phones"] = []map[string]string{{"number": "1234567", "countrycode": "57"}}
			},
			wantInBody: "ciudad",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockUserService)
			router := newTestRouter(mockService)

			body := validRegisterBody()
			tc.mutate(body)

			rr := doJSON(t, router, http.MethodPost, "/api/users/register", body, nil)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decodeMensaje(t, rr), tc.wantInBody)
			mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestUserHandler_Register_MalformedJSON(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestUserHandler_GetProfile_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	storedUser := &user.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     "Juan",
		Email:    "juan@x.org",
		Token:    "signed-token",
		IsActive: true,
	}
	mockService.On("GetByEmail", mock.Anything, "juan@x.org").Return(storedUser, nil).Once()

	token, err := testTokens.Issue("juan@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/users/profile", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusOK, rr.Code)

	var response userHandler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "juan@x.org", response.Email)
	mockService.AssertExpectations(t)
}

func TestUserHandler_GetProfile_NoToken(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	rr := doJSON(t, router, http.MethodGet, "/api/users/profile", nil, nil)

	require.Equal(t, http.StatusForbidden, rr.Code)
	mockService.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUserHandler_GetProfile_ExpiredToken(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	expired, err := auth.NewTokenService([]byte("test-secret"), -time.Minute).Issue("juan@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/users/profile", nil,
		map[string]string{"Authorization": "Bearer " + expired})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	mockService.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUserHandler_GetProfile_SubjectNotFound(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	// The subject verified, but its row is gone, e.g. deleted after the
	// token was issued.
	mockService.On("GetByEmail", mock.Anything, "juan@x.org").Return(nil, user.ErrNotFound).Once()

	token, err := testTokens.Issue("juan@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/users/profile", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Usuario no encontrado", decodeMensaje(t, rr))
	mockService.AssertExpectations(t)
}

func TestUserHandler_ListUsers_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	stored := []user.User{
		{ID: uuid.Must(uuid.NewV4()), Email: "a@x.org"},
		{ID: uuid.Must(uuid.NewV4()), Email: "b@x.org"},
	}
	mockService.On("ListAll", mock.Anything).Return(stored, nil).Once()

	token, err := testTokens.Issue("admin@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/users/all", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusOK, rr.Code)

	var response []userHandler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	require.Len(t, response, 2)
	assert.Equal(t, "a@x.org", response[0].Email)
	mockService.AssertExpectations(t)
}

func TestUserHandler_DeleteProfile_Success(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	mockService.On("DeleteByEmail", mock.Anything, "juan@x.org").Return(nil).Once()

	token, err := testTokens.Issue("juan@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodDelete, "/api/users/profile", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Usuario eliminado exitosamente", decodeMensaje(t, rr))
	mockService.AssertExpectations(t)
}

func TestUserHandler_DeleteProfile_NotFound(t *testing.T) {
	mockService := new(MockUserService)
	router := newTestRouter(mockService)

	mockService.On("DeleteByEmail", mock.Anything, "juan@x.org").Return(user.ErrNotFound).Once()

	token, err := testTokens.Issue("juan@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodDelete, "/api/users/profile", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Usuario no encontrado", decodeMensaje(t, rr))
	mockService.AssertExpectations(t)
}

func TestUserHandler_Health(t *testing.T) {
	router := newTestRouter(new(MockUserService))

	rr := doJSON(t, router, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestUserHandler_UnknownRoute(t *testing.T) {
	router := newTestRouter(new(MockUserService))

	token, err := testTokens.Issue("juan@x.org")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/users/unknown", nil,
		map[string]string{"Authorization": "Bearer " + token})

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Recurso no encontrado", decodeMensaje(t, rr))
}

package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"healthtrends/internal/controllers"
	"healthtrends/internal/mocks"
	"healthtrends/internal/models"
)

func TestLookupUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.MockUserRepository)
		expectedStatus int
		expectedName   string
	}{
		{
			name: "found",
			body: `{"email":"sam@example.com"}`,
			setupMock: func(m *mocks.MockUserRepository) {
				user := &models.User{Name: "sam", Email: "sam@example.com"}
				user.ID = 8
				m.On("GetUserByEmail", "sam@example.com").Return(user, nil)
			},
			expectedStatus: http.StatusOK,
			expectedName:   "sam",
		},
		{
			name: "unknown email",
			body: `{"email":"ghost@example.com"}`,
			setupMock: func(m *mocks.MockUserRepository) {
				m.On("GetUserByEmail", "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid email",
			body:           `{"email":"nope"}`,
			setupMock:      func(m *mocks.MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockUserRepository)
			tt.setupMock(repo)

			router := setupTestRouter()
			router.POST("/users/lookup", controllers.NewUserController(repo).LookupUser)

			req := httptest.NewRequest(http.MethodPost, "/users/lookup", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedName != "" {
				var response struct {
					Data struct {
						UserID   uint   `json:"user_id"`
						Username string `json:"username"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, tt.expectedName, response.Data.Username)
				assert.Equal(t, uint(8), response.Data.UserID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	repo := new(mocks.MockUserRepository)
	user := &models.User{Name: "ana", Email: "ana@example.com"}
	user.ID = 2
	repo.On("GetUserByID", uint(2)).Return(user, nil)

	router := setupTestRouter()
	router.GET("/users/me", addAuthMiddleware(2), controllers.NewUserController(repo).GetCurrentUser)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ana"`)
}

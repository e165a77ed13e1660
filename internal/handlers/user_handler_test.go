package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParseListQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		url             string
		expectedPage    int
		expectedPerPage int
		expectedSearch  string
		expectedSortBy  string
		expectedSortDir string
	}{
		{
			name:            "Defaults",
			url:             "/users",
			expectedPage:    1,
			expectedPerPage: 20,
		},
		{
			name:            "Pagination and search",
			url:             "/users?page=3&per_page=50&search=lopez",
			expectedPage:    3,
			expectedPerPage: 50,
			expectedSearch:  "lopez",
		},
		{
			name:            "Sort with direction",
			url:             "/users?sort=created_at-desc",
			expectedPage:    1,
			expectedPerPage: 20,
			expectedSortBy:  "created_at",
			expectedSortDir: "desc",
		},
		{
			name:            "Sort without direction",
			url:             "/users?sort=full_name",
			expectedPage:    1,
			expectedPerPage: 20,
			expectedSortBy:  "full_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", tt.url, nil)

			query := parseListQuery(c)
			assert.Equal(t, tt.expectedPage, query.Page)
			assert.Equal(t, tt.expectedPerPage, query.PerPage)
			assert.Equal(t, tt.expectedSearch, query.Search)
			assert.Equal(t, tt.expectedSortBy, query.SortBy)
			assert.Equal(t, tt.expectedSortDir, query.SortDir)
		})
	}
}

func TestActorWithoutAuthContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	assert.Nil(t, actor(c))
}

func TestActorReadsAuthContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set("userID", uint(42))
	c.Set("userRole", "officer")

	user := actor(c)
	assert.NotNil(t, user)
	assert.Equal(t, uint(42), user.ID)
	assert.Equal(t, "officer", user.Role)
}

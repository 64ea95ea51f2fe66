// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongPasswordTag(t *testing.T) {
	type payload struct {
		Password string `validate:"strong_password"`
	}

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"all character classes", "Abcdef1!", true},
		{"too short", "Ab1!", false},
		{"no uppercase", "abcdef1!", false},
		{"no number", "Abcdefg!", false},
		{"no special", "Abcdefg1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&payload{Password: tt.password})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestUsernameTag(t *testing.T) {
	type payload struct {
		Username string `validate:"username"`
	}

	assert.NoError(t, ValidateStruct(&payload{Username: "jane_doe42"}))
	assert.Error(t, ValidateStruct(&payload{Username: "ab"}))
	assert.Error(t, ValidateStruct(&payload{Username: "has spaces"}))
	assert.Error(t, ValidateStruct(&payload{Username: "nope!"}))
}

func TestLoanStatusTag(t *testing.T) {
	type payload struct {
		Status string `validate:"loan_status"`
	}

	assert.NoError(t, ValidateStruct(&payload{Status: "inquired"}))
	assert.NoError(t, ValidateStruct(&payload{Status: "prepared_for_pickup"}))
	assert.Error(t, ValidateStruct(&payload{Status: "floating"}))
}

func TestRatingTag(t *testing.T) {
	type payload struct {
		Rating int `validate:"rating"`
	}

	for rating := 1; rating <= 5; rating++ {
		assert.NoError(t, ValidateStruct(&payload{Rating: rating}))
	}
	assert.Error(t, ValidateStruct(&payload{Rating: 0}))
	assert.Error(t, ValidateStruct(&payload{Rating: 6}))
}

func TestGetValidationErrors(t *testing.T) {
	type payload struct {
		Email  string `validate:"required,email"`
		Rating int    `validate:"rating"`
	}

	err := ValidateStruct(&payload{Email: "not-an-email", Rating: 9})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "Email", errs[0].Field)
	assert.Equal(t, "email", errs[0].Tag)
	assert.Equal(t, "Rating", errs[1].Field)
	assert.Equal(t, "Rating must be between 1 and 5", errs[1].Message)
}

// internal/utils/pagination_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	allowed := []string{"created_at", "updated_at", "from", "to", "status"}

	tests := []struct {
		name   string
		params PaginationParams
		want   string
	}{
		{"plain column", PaginationParams{Sort: "status", Order: "asc"}, `"status" asc`},
		// "from" and "to" are reserved words in PostgreSQL; the clause has
		// to quote them to stay valid SQL.
		{"reserved word from", PaginationParams{Sort: "from", Order: "desc"}, `"from" desc`},
		{"reserved word to", PaginationParams{Sort: "to", Order: "asc"}, `"to" asc`},
		{"unknown column falls back", PaginationParams{Sort: "password_hash", Order: "asc"}, `"created_at" asc`},
		{"empty sort falls back", PaginationParams{Order: "desc"}, `"created_at" desc`},
		{"bogus order falls back", PaginationParams{Sort: "status", Order: "desc; DROP TABLE loans"}, `"status" desc`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderClause(tt.params, allowed))
		})
	}
}

package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "ux_coupons_code"}
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert coupon: %w", dup)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsMissingReference(t *testing.T) {
	assert.True(t, IsMissingReference(&pgconn.PgError{Code: "23503", ConstraintName: "reviews_product_id_fkey"}))
	assert.True(t, IsMissingReference(fmt.Errorf("insert review: %w", &pgconn.PgError{Code: "22P02"})))
	assert.False(t, IsMissingReference(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsMissingReference(nil))
}

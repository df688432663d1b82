package store

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTranslateUniqueViolation(t *testing.T) {
	err := translateUniqueViolation(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTranslateUniqueViolationPassesOtherErrorsThrough(t *testing.T) {
	fk := &pq.Error{Code: "23503"}
	assert.Equal(t, error(fk), translateUniqueViolation(fk))

	plain := errors.New("connection refused")
	assert.Equal(t, plain, translateUniqueViolation(plain))
}

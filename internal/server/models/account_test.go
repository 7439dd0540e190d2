package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_FullName(t *testing.T) {
	assert.Equal(t, "Alice Smith", (&Account{FirstName: "Alice", LastName: "Smith"}).FullName())
	assert.Equal(t, "Alice", (&Account{FirstName: "Alice"}).FullName())
	assert.Equal(t, "", (&Account{}).FullName())
}

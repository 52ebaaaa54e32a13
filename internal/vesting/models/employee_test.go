package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmployee_Key(t *testing.T) {
	employee := &Employee{Identity: "alice", OrgID: 3, Name: "Alice", Active: true}
	assert.Equal(t, EmployeeKey{Identity: "alice", OrgID: 3}, employee.Key())

	other := &Employee{Identity: "alice", OrgID: 4}
	assert.NotEqual(t, employee.Key(), other.Key(), "same identity in another organization is a different record")
}

package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"name", "age"}, DedupeAndTrim([]string{"  name ", "age", "name", "", "  "}))
	assert.Empty(t, DedupeAndTrim(nil))
}

func TestSortedSet(t *testing.T) {
	in := []string{"name", " age", "name"}
	assert.Equal(t, []string{"age", "name"}, SortedSet(in))
	assert.Equal(t, []string{"name", " age", "name"}, in, "input must not be mutated")
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "organization_id", ToSnakeCase("OrganizationID"))
	assert.Equal(t, "subject_did", ToSnakeCase("SubjectDID"))
	assert.Equal(t, "attributes", ToSnakeCase("Attributes"))
}

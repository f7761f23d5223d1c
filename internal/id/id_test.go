package id

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUUID_Format(t *testing.T) {
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	for i := 0; i < 50; i++ {
		id := UUID()
		assert.Regexp(t, uuidRegex, id)
		assert.NoError(t, uuid.Validate(id))
	}
}

func TestUUID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := UUID()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSortable_Ordered(t *testing.T) {
	prev := Sortable()
	for i := 0; i < 100; i++ {
		next := Sortable()
		assert.Less(t, prev, next)
		assert.Equal(t, uuid.Version(7), uuid.MustParse(next).Version())
		prev = next
	}
}

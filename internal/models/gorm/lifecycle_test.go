package gorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type tabler interface{ TableName() string }

func TestEveryModelDeclaresALifecycle(t *testing.T) {
	for _, m := range All() {
		tb, ok := m.(tabler)
		if !assert.True(t, ok, "%T has no TableName", m) {
			continue
		}
		assert.NotPanics(t, func() { LifecycleOf(tb.TableName()) }, tb.TableName())
	}
}

func TestBlockableTables(t *testing.T) {
	assert.True(t, LifecycleOf("venues").Blockable)
	assert.True(t, LifecycleOf("events").Blockable)
	assert.False(t, LifecycleOf("event_attendees").Blockable)
	assert.Equal(t, DeleteHard, LifecycleOf("event_minutes").Delete)
}

func TestNameKeyAndFullName(t *testing.T) {
	assert.Equal(t, "board room a", NameKey("  Board Room A "))

	middle := "K."
	u := User{FirstName: "Asha", MiddleName: &middle, LastName: "Mushi"}
	assert.Equal(t, "Asha K. Mushi", u.FullName())
	u.MiddleName = nil
	assert.Equal(t, "Asha Mushi", u.FullName())
}

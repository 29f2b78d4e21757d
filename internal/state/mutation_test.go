package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutationAppliesInOrder(t *testing.T) {
	m := NewMutation(Assign(nameField, "a"), Assign(nameField, "b"))
	got := m.Apply(item{ID: 1, Name: "x"})
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, []string{"name"}, m.Fields())
	assert.Equal(t, 2, m.Len())
}

func TestEmptyMutationIsIdentity(t *testing.T) {
	var m Mutation[item]
	in := item{ID: 1, Name: "x"}
	assert.True(t, m.IsEmpty())
	assert.Equal(t, in, m.Apply(in))
	assert.Equal(t, in, Merge(m, m).Apply(in))
}

func TestMergeIsAssociative(t *testing.T) {
	a := NewMutation(Assign(nameField, "a"))
	b := NewMutation(Transform("upper", func(i item) item { i.Name = strings.ToUpper(i.Name); return i }))
	c := NewMutation(Assign(doneField, true))
	in := item{ID: 1}

	left := Merge(Merge(a, b), c).Apply(in)
	right := Merge(a, Merge(b, c)).Apply(in)
	assert.Equal(t, left, right)
	assert.Equal(t, item{ID: 1, Name: "A", Done: true}, left)
}

func TestUpdateBuilder(t *testing.T) {
	b := NewUpdateBuilder[item]()
	Set(b, nameField, "first")
	Set(b, doneField, true)
	b.Apply("suffix", func(i item) item { i.Name += "!"; return i })
	Set(b, nameField, "last")

	m := b.Build()
	assert.Equal(t, item{ID: 1, Name: "last", Done: true}, m.Apply(item{ID: 1}))
	assert.Equal(t, []string{"name", "done", "suffix"}, m.Fields())

	changes := m.Changes()
	assert.Equal(t, "first", changes[0].Value)
	assert.True(t, changes[2].Custom)
	assert.Nil(t, changes[2].Value)
}

func TestChangesIsACopy(t *testing.T) {
	m := NewMutation(Assign(nameField, "a"))
	changes := m.Changes()
	changes[0] = Assign(nameField, "z")
	assert.Equal(t, "a", m.Apply(item{}).Name)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeEntriesRoundTrip(t *testing.T) {
	grade := 88.5
	user := User{Username: "alice", Role: UserTypeStudent}
	require.NoError(t, user.SetGradeEntries([]GradeEntry{
		{Homework: "hw1", Grade: &grade},
		{Homework: "hw2"},
	}))

	entries, err := user.GradeEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "hw1", entries[0].Homework)
	require.InDelta(t, 88.5, *entries[0].Grade, 0.001)
	require.Nil(t, entries[1].Grade)
}

func TestGradeEntriesEmptyLedger(t *testing.T) {
	user := User{Username: "bob"}
	entries, err := user.GradeEntries()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestGradeFor(t *testing.T) {
	grade := 42.0
	user := User{Username: "alice"}
	require.NoError(t, user.SetGradeEntries([]GradeEntry{
		{Homework: "hw1", Grade: &grade},
		{Homework: "hw2"},
	}))

	value, ok := user.GradeFor("hw1")
	require.True(t, ok)
	require.InDelta(t, 42, *value, 0.001)

	value, ok = user.GradeFor("hw2")
	require.True(t, ok)
	require.Nil(t, value)

	_, ok = user.GradeFor("hw3")
	require.False(t, ok)
}

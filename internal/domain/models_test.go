package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusValid(t *testing.T) {
	for _, s := range []TaskStatus{StatusPending, StatusInProgress, StatusCompleted} {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []TaskStatus{"", "archived", "PENDING", "done"} {
		assert.False(t, s.Valid(), s)
	}
}

func TestErrorKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotFoundError("task not found"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	var de *Error
	if assert.True(t, errors.As(err, &de)) {
		assert.Equal(t, "task not found", de.Message)
	}
}

func TestUserSummaryOmitsHash(t *testing.T) {
	u := &User{ID: "1", Name: "Ana", Email: "ana@x.com", PasswordHash: "secret"}
	assert.Equal(t, UserSummary{ID: "1", Name: "Ana", Email: "ana@x.com"}, u.Summary())
}

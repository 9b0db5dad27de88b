package errkind_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/stretchr/testify/require"
)

func TestNewWrapsKind(t *testing.T) {
	err := errkind.New(errkind.ErrConflict, "quote is signed")
	require.ErrorIs(t, err, errkind.ErrConflict)
	require.Equal(t, "quote is signed", err.Error())

	wrapped := fmt.Errorf("editing quote: %w", err)
	require.ErrorIs(t, wrapped, err)
	require.Equal(t, errkind.ErrConflict, errkind.Of(wrapped))
	require.Equal(t, "editing quote: quote is signed", wrapped.Error())

	// sentinels stay distinct even with the same kind and message
	require.NotErrorIs(t, errkind.New(errkind.ErrConflict, "quote is signed"), err)
}

func TestOfInfrastructureError(t *testing.T) {
	require.Nil(t, errkind.Of(nil))
	require.Nil(t, errkind.Of(errors.New("disk full")))
}

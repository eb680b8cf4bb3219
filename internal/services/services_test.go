package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"go-giftstock/internal/apperr"

	"github.com/stretchr/testify/require"
)

func TestAsBusyMapsLockContention(t *testing.T) {
	lockWait := fmt.Errorf("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction")
	require.Equal(t, apperr.KindBusy, apperr.KindOf(asBusy(lockWait)))

	deadlock := fmt.Errorf("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction")
	require.Equal(t, apperr.KindBusy, apperr.KindOf(asBusy(deadlock)))
}

func TestAsBusyPassesOtherErrorsThrough(t *testing.T) {
	require.NoError(t, asBusy(nil))

	plain := errors.New("connection refused")
	require.Same(t, plain, asBusy(plain))

	// Typed service errors keep their kind.
	typed := apperr.NotFoundf("product 7 not found")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(asBusy(typed)))
}

func TestOrNow(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, fixed, orNow(fixed))
	require.False(t, orNow(time.Time{}).IsZero())
}

package ledger

import (
	"testing"

	"go-giftstock/internal/apperr"

	"github.com/stretchr/testify/require"
)

type stock struct {
	total, available, reserved, sold int
}

func (s *stock) counts() Counts[int] {
	return Counts[int]{
		Label:     "test item",
		Total:     &s.total,
		Available: &s.available,
		Reserved:  &s.reserved,
		Sold:      &s.sold,
	}
}

func TestIncreaseAvailable(t *testing.T) {
	s := &stock{}
	require.NoError(t, s.counts().IncreaseAvailable(10))
	require.Equal(t, 10, s.total)
	require.Equal(t, 10, s.available)
	require.NoError(t, s.counts().Check())

	err := s.counts().IncreaseAvailable(0)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestReserveAndRelease(t *testing.T) {
	s := &stock{total: 10, available: 10}

	require.NoError(t, s.counts().Reserve(4))
	require.Equal(t, 6, s.available)
	require.Equal(t, 4, s.reserved)
	require.NoError(t, s.counts().Check())

	require.NoError(t, s.counts().Release(4))
	require.Equal(t, 10, s.available)
	require.Equal(t, 0, s.reserved)
	require.NoError(t, s.counts().Check())
}

func TestReserveInsufficient(t *testing.T) {
	s := &stock{total: 10, available: 3, sold: 7}
	err := s.counts().Reserve(4)
	require.Error(t, err)
	require.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	// Nothing moved.
	require.Equal(t, &stock{total: 10, available: 3, sold: 7}, s)
}

func TestReleaseMoreThanReserved(t *testing.T) {
	s := &stock{total: 10, available: 8, reserved: 2}
	err := s.counts().Release(3)
	require.Error(t, err)
	require.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	require.Equal(t, &stock{total: 10, available: 8, reserved: 2}, s)
}

func TestConsumeReserved(t *testing.T) {
	s := &stock{total: 10, available: 6, reserved: 4}
	require.NoError(t, s.counts().ConsumeReserved(4))
	require.Equal(t, 6, s.available)
	require.Equal(t, 0, s.reserved)
	require.Equal(t, 4, s.sold)
	require.NoError(t, s.counts().Check())

	err := s.counts().ConsumeReserved(1)
	require.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}

func TestSellAvailable(t *testing.T) {
	s := &stock{total: 10, available: 10}
	require.NoError(t, s.counts().SellAvailable(7))
	require.Equal(t, 3, s.available)
	require.Equal(t, 7, s.sold)
	require.NoError(t, s.counts().Check())

	err := s.counts().SellAvailable(4)
	require.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	require.Equal(t, 3, s.available)
}

func TestReturnSold(t *testing.T) {
	s := &stock{total: 10, available: 3, sold: 7}
	require.NoError(t, s.counts().ReturnSold(2))
	require.Equal(t, 5, s.available)
	require.Equal(t, 5, s.sold)
	require.NoError(t, s.counts().Check())

	err := s.counts().ReturnSold(6)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestFractionalQuantities(t *testing.T) {
	var total, available, reserved, sold float64
	c := Counts[float64]{Label: "ribbon", Total: &total, Available: &available, Reserved: &reserved, Sold: &sold}

	require.NoError(t, c.IncreaseAvailable(2.5))
	require.NoError(t, c.Reserve(1.5))
	require.NoError(t, c.ConsumeReserved(1.5))
	require.InDelta(t, 1.0, available, 1e-9)
	require.InDelta(t, 1.5, sold, 1e-9)
	require.NoError(t, c.Check())
}

func TestCheckDetectsDrift(t *testing.T) {
	s := &stock{total: 10, available: 5, sold: 4}
	require.Error(t, s.counts().Check())

	s = &stock{total: 10, available: 11, reserved: -1}
	require.Error(t, s.counts().Check())
}

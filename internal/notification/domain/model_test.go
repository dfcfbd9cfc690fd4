package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertDedupeKey(t *testing.T) {
	key, err := Alert{Kind: KindDailyLimitReached, ConfigID: "cfg-1", BusinessDay: "2026-05-10"}.DedupeKey()
	require.NoError(t, err)
	assert.Equal(t, "daily_limit_reached:cfg-1:2026-05-10", key)

	key, err = Alert{Kind: KindOutbid, ConfigID: "cfg-1", BusinessDay: "2026-05-10"}.DedupeKey()
	require.NoError(t, err)
	assert.Equal(t, "outbid:cfg-1:2026-05-10", key)

	key, err = Alert{Kind: KindInsufficientBalance, ConfigID: "cfg-1", BusinessDay: "2026-05-10"}.DedupeKey()
	require.NoError(t, err)
	assert.Equal(t, "insufficient_balance:cfg-1", key)

	_, err = Alert{Kind: "promo", ConfigID: "cfg-1"}.DedupeKey()
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Alert{Kind: KindOutbid}.DedupeKey()
	assert.ErrorIs(t, err, ErrMissingConfig)
}

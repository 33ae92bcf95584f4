package pip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeWindow(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		issuer string
		start  time.Time
	}{
		{"x:tw:10:minute", now.Add(-10 * time.Minute)},
		{"tw:30:second", now.Add(-30 * time.Second)},
		{GuardIssuerPrefix + "tw:2:HOUR", now.Add(-2 * time.Hour)},
		{GuardIssuerPrefix + "tw:1:day", now.AddDate(0, 0, -1)},
		{GuardIssuerPrefix + "tw:2:Week", now.AddDate(0, 0, -14)},
		{GuardIssuerPrefix + "tw:1:month", time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)},
		{GuardIssuerPrefix + "tw:1:year", now.AddDate(-1, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.issuer, func(t *testing.T) {
			w, err := ParseTimeWindow(tc.issuer)
			require.NoError(t, err)
			assert.Equal(t, tc.start, w.Start(now))
		})
	}
}

func TestParseTimeWindowErrors(t *testing.T) {
	_, err := ParseTimeWindow("x:tw:2:fortnight")
	assert.ErrorIs(t, err, ErrUnsupportedUnit)

	for _, issuer := range []string{"", "tw", "x:tw:ten:minute", "x:tw:-1:minute", "x:window:10:minute", "x:tw:10"} {
		_, err := ParseTimeWindow(issuer)
		assert.ErrorIs(t, err, ErrMalformedWindow, issuer)
	}
}

func TestParseTimeWindowRejectsOverflow(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	for _, issuer := range []string{"tw:3000000:hour", "tw:9223372037:second", "tw:200000000:minute", "tw:300:year", "tw:4000:month"} {
		_, err := ParseTimeWindow(issuer)
		assert.ErrorIs(t, err, ErrMalformedWindow, issuer)
	}

	w, err := ParseTimeWindow("tw:2562047:hour")
	require.NoError(t, err)
	assert.True(t, w.Start(now).Before(now))

	w, err = ParseTimeWindow("tw:290:year")
	require.NoError(t, err)
	assert.True(t, w.Start(now).Before(now))
}

func TestNormalizeOutcome(t *testing.T) {
	assert.Empty(t, NormalizeOutcome(""))
	assert.Equal(t, OutcomeInProgress, NormalizeOutcome("Started"))
	assert.Equal(t, OutcomeComplete, NormalizeOutcome("Success"))
	assert.Equal(t, OutcomeComplete, NormalizeOutcome("Failure"))
}

func TestIssuerBuilders(t *testing.T) {
	assert.Equal(t, "urn:org:onap:xacml:guard:tw:10:minute", CountIssuer(10, "minute"))
	assert.Equal(t, "urn:org:onap:xacml:guard:clname:loop-a", OutcomeIssuer("loop-a"))
}

package drafts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-post-guard/internal/models"
)

func TestIsSkip(t *testing.T) {
	for _, s := range []string{"skip", "SKIP", " Skip ", "/skip"} {
		assert.True(t, IsSkip(s), s)
	}
	for _, s := range []string{"", "skipped", "don't skip", "//skip"} {
		assert.False(t, IsSkip(s), s)
	}
}

func TestParseButtons(t *testing.T) {
	in := "Site | https://example.com\n" +
		"no separator here\n" +
		"  Docs|https://docs.example.com  \n" +
		" | https://nolabel.example.com\n" +
		"Empty target |\n" +
		"Query | https://example.com/?a=1|2\n"

	got := ParseButtons(in)
	assert.Equal(t, []models.Button{
		{Label: "Site", URL: "https://example.com"},
		{Label: "Docs", URL: "https://docs.example.com"},
		{Label: "Query", URL: "https://example.com/?a=1|2"},
	}, got)
}

func TestParseButtonsNothingValid(t *testing.T) {
	got := ParseButtons("just text\nmore text")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseTime(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	got, err := ParseTime("now", now, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(now))

	got, err = ParseTime("NOW ", now, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(now))

	got, err = ParseTime("in 1h30m", now, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.Add(90*time.Minute)))

	got, err = ParseTime("2025-12-25 06:00", now, time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 12, 25, 6, 0, 0, 0, time.UTC)))

	_, err = ParseTime("banana o'clock", now, time.UTC)
	assert.Error(t, err)
}

func TestParseTimeLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	got, err := ParseTime("2025-12-25 06:00", now, loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 12, 25, 3, 0, 0, 0, time.UTC)))
}

func TestDelay(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, Delay(now.Add(time.Hour), now))
	assert.Equal(t, time.Duration(0), Delay(now, now))
	assert.Equal(t, time.Duration(0), Delay(now.Add(-time.Hour), now))
}

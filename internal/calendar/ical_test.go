package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/storage/models"
)

const districtFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:thanksgiving@district\r\n" +
	"SUMMARY:Thanksgiving Break\\, no school\r\n" +
	"DTSTART;VALUE=DATE:20241127\r\n" +
	"DTEND;VALUE=DATE:20241130\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:board@district\r\n" +
	"SUMMARY:Board meeting with a very long summary that is folded onto\r\n" +
	"  a second line\r\n" +
	"DTSTART:20241112T230000Z\r\n" +
	"DTEND:20241113T010000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:vets@district\r\n" +
	"SUMMARY:Veterans Day\r\n" +
	"DTSTART;VALUE=DATE:20241111\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:nodate@district\r\n" +
	"SUMMARY:Broken\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParser_Parse(t *testing.T) {
	events, err := NewParser().Parse(strings.NewReader(districtFeed))
	require.NoError(t, err)
	require.Len(t, events, 3)

	thanks := events[0]
	assert.Equal(t, "thanksgiving@district", thanks.UID)
	assert.Equal(t, "Thanksgiving Break, no school", thanks.Summary)
	assert.True(t, thanks.AllDay)
	assert.Equal(t, []time.Time{
		models.Date(2024, time.November, 27),
		models.Date(2024, time.November, 28),
		models.Date(2024, time.November, 29),
	}, thanks.Days())
	assert.Equal(t, int64(3), thanks.DayCount())

	board := events[1]
	assert.False(t, board.AllDay)
	assert.Equal(t, "Board meeting with a very long summary that is folded onto a second line", board.Summary)

	vets := events[2]
	assert.True(t, vets.AllDay)
	assert.Equal(t, []time.Time{models.Date(2024, time.November, 11)}, vets.Days())

	assert.Len(t, AllDayEvents(events), 2)
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		params     string
		want       time.Time
		wantAllDay bool
	}{
		{name: "date param", value: "20240902", params: "VALUE=DATE", want: models.Date(2024, time.September, 2), wantAllDay: true},
		{name: "bare date", value: "20240902", want: models.Date(2024, time.September, 2), wantAllDay: true},
		{name: "utc", value: "20240902T083000Z", want: time.Date(2024, time.September, 2, 8, 30, 0, 0, time.UTC)},
		{name: "garbage", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allDay := parseDateTime(tt.value, tt.params)
			assert.True(t, tt.want.Equal(got), "got %v", got)
			assert.Equal(t, tt.wantAllDay, allDay)
		})
	}
}

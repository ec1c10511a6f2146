package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage/models"
)

func TestWriteICS(t *testing.T) {
	section := "Period 2"
	class := models.ClassSubject{ID: 1, Name: "Math", Section: &section}
	assignments := []schedule.Assignment{
		{
			Lesson: models.Lesson{ID: 7, Number: "3.1", Name: "Fractions, part 1", LearningObjective: "Compare fractions", Materials: []string{"strips"}},
			Class:  class,
			Date:   models.Date(2024, time.September, 2),
		},
		{
			Lesson:   models.Lesson{ID: 8, Number: "3.2", Name: "Quiz"},
			Class:    class,
			Date:     models.Date(2024, time.September, 6),
			Anchored: true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, "Fall Plan", assignments, time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)))
	body := buf.String()

	for _, field := range []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0\r\n",
		"PRODID:" + ICSProductID,
		"X-WR-CALNAME:Fall Plan",
		"UID:lesson-7@lesson-planner",
		"DTSTAMP:20240801T120000Z",
		"DTSTART;VALUE=DATE:20240902",
		"DTEND;VALUE=DATE:20240903",
		`SUMMARY:Math (Period 2) - 3.1: Fractions\, part 1`,
		`DESCRIPTION:Objective: Compare fractions\nMaterials: strips`,
		"DTSTART;VALUE=DATE:20240906",
		"END:VCALENDAR\r\n",
	} {
		assert.Contains(t, body, field)
	}

	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, `Anchored date`)
}

func TestWriteICS_FoldsLongLines(t *testing.T) {
	long := strings.Repeat("x", 200)
	assignments := []schedule.Assignment{{
		Lesson: models.Lesson{ID: 1, Name: long},
		Class:  models.ClassSubject{ID: 1, Name: "Art"},
		Date:   models.Date(2024, time.September, 2),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, "Plan", assignments, time.Now()))

	for _, line := range strings.Split(buf.String(), "\r\n") {
		assert.LessOrEqual(t, len(line), 75)
	}
	unfolded := strings.ReplaceAll(buf.String(), "\r\n ", "")
	assert.Contains(t, unfolded, "SUMMARY:Art - "+long)
}

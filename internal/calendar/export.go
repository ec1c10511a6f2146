package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lesson-planner/backend/internal/schedule"
)

// ICSProductID identifies exported calendars.
const ICSProductID = "-//Lesson Planner//Schedule//EN"

// WriteICS writes the scheduled lessons as an iCalendar document with one
// all-day VEVENT per lesson.
func WriteICS(w io.Writer, calName string, assignments []schedule.Assignment, stamp time.Time) error {
	ew := &errWriter{w: w}

	ew.line("BEGIN:VCALENDAR")
	ew.line("VERSION:2.0")
	ew.line("PRODID:" + ICSProductID)
	ew.line("CALSCALE:GREGORIAN")
	ew.line("METHOD:PUBLISH")
	ew.line("X-WR-CALNAME:" + escapeText(calName))

	dtstamp := stamp.UTC().Format("20060102T150405Z")
	for _, a := range assignments {
		summary := a.Lesson.Title()
		if label := a.Class.Label(); label != "" {
			summary = label + " - " + summary
		}

		ew.line("BEGIN:VEVENT")
		ew.line(fmt.Sprintf("UID:lesson-%d@lesson-planner", a.Lesson.ID))
		ew.line("DTSTAMP:" + dtstamp)
		ew.line("DTSTART;VALUE=DATE:" + a.Date.Format("20060102"))
		ew.line("DTEND;VALUE=DATE:" + a.Date.AddDate(0, 0, 1).Format("20060102"))
		ew.line("SUMMARY:" + escapeText(summary))
		if desc := lessonDescription(a); desc != "" {
			ew.line("DESCRIPTION:" + escapeText(desc))
		}
		ew.line("CATEGORIES:" + escapeText(a.Class.Label()))
		ew.line("END:VEVENT")
	}

	ew.line("END:VCALENDAR")
	return ew.err
}

func lessonDescription(a schedule.Assignment) string {
	var parts []string
	if a.Lesson.LearningObjective != "" {
		parts = append(parts, "Objective: "+a.Lesson.LearningObjective)
	}
	if len(a.Lesson.Materials) > 0 {
		parts = append(parts, "Materials: "+strings.Join(a.Lesson.Materials, ", "))
	}
	if a.Anchored {
		parts = append(parts, "Anchored date")
	}
	return strings.Join(parts, "\n")
}

func escapeText(s string) string {
	return strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`).Replace(s)
}

// errWriter writes CRLF-terminated lines, folded at 75 octets, and keeps the
// first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) line(s string) {
	if e.err != nil {
		return
	}
	for len(s) > 75 {
		cut := 75
		// Don't split a UTF-8 sequence.
		for cut > 0 && s[cut]&0xC0 == 0x80 {
			cut--
		}
		if _, e.err = io.WriteString(e.w, s[:cut]+"\r\n"); e.err != nil {
			return
		}
		s = " " + s[cut:]
	}
	_, e.err = io.WriteString(e.w, s+"\r\n")
}

// Package calendar imports holiday feeds, exports the lesson schedule as
// iCalendar and runs the planner's background jobs.
package calendar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// maxFeedSize caps how much of a remote feed is read.
const maxFeedSize = 10 << 20

// Parser parses iCal/ICS calendar feeds.
type Parser struct {
	httpClient *http.Client
}

// NewParser creates a new iCal parser.
func NewParser() *Parser {
	return &Parser{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchAndParse downloads and parses an iCal feed from a URL.
func (p *Parser) FetchAndParse(ctx context.Context, url string) ([]models.FeedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	return p.Parse(io.LimitReader(resp.Body, maxFeedSize))
}

// Parse reads and parses iCal data from a reader. Events without a start
// are dropped. A missing end is treated as a one-day event.
func (p *Parser) Parse(r io.Reader) ([]models.FeedEvent, error) {
	var events []models.FeedEvent
	var current *models.FeedEvent
	var currentField, currentParams string
	var value strings.Builder

	flush := func() {
		if currentField != "" && current != nil {
			p.setEventField(current, currentField, currentParams, value.String())
		}
		currentField, currentParams = "", ""
		value.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		// Folded lines continue the previous property
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if currentField != "" {
				value.WriteString(line[1:])
			}
			continue
		}

		flush()

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		field := strings.ToUpper(line[:colonIdx])
		val := line[colonIdx+1:]

		// Property parameters, e.g. DTSTART;VALUE=DATE:20241225
		params := ""
		if semicolonIdx := strings.Index(field, ";"); semicolonIdx != -1 {
			params = line[semicolonIdx+1 : colonIdx]
			field = field[:semicolonIdx]
		}

		switch field {
		case "BEGIN":
			if val == "VEVENT" {
				current = &models.FeedEvent{}
			}
		case "END":
			if val == "VEVENT" && current != nil {
				if !current.Start.IsZero() {
					if current.End.IsZero() {
						current.End = current.Start.AddDate(0, 0, 1)
					}
					events = append(events, *current)
				}
				current = nil
			}
		case "UID", "SUMMARY", "DTSTART", "DTEND":
			if current != nil {
				currentField = field
				currentParams = params
				value.WriteString(val)
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	return events, nil
}

// setEventField sets a field on a FeedEvent.
func (p *Parser) setEventField(event *models.FeedEvent, field, params, value string) {
	switch field {
	case "UID":
		event.UID = unescapeText(value)
	case "SUMMARY":
		event.Summary = unescapeText(value)
	case "DTSTART":
		event.Start, event.AllDay = parseDateTime(value, params)
	case "DTEND":
		event.End, _ = parseDateTime(value, params)
	}
}

func unescapeText(value string) string {
	return strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`).Replace(value)
}

// parseDateTime parses an iCal date or date-time and reports whether it was
// a plain date.
func parseDateTime(value, params string) (time.Time, bool) {
	upper := strings.ToUpper(params)
	if strings.Contains(upper, "VALUE=DATE") && !strings.Contains(upper, "VALUE=DATE-TIME") {
		if t, err := time.Parse("20060102", value); err == nil {
			return t, true
		}
	}

	loc := time.UTC
	for _, param := range strings.Split(params, ";") {
		if name, tz, ok := strings.Cut(param, "="); ok && strings.EqualFold(name, "TZID") {
			if l, err := time.LoadLocation(strings.Trim(tz, `"`)); err == nil {
				loc = l
			}
		}
	}

	formats := []struct {
		layout string
		allDay bool
	}{
		{"20060102T150405Z", false},
		{"20060102T150405", false},
		{"20060102", true},
		{"2006-01-02T15:04:05Z", false},
		{"2006-01-02", true},
	}

	for _, f := range formats {
		if t, err := time.ParseInLocation(f.layout, value, loc); err == nil {
			return t, f.allDay
		}
	}

	return time.Time{}, false
}

// AllDayEvents keeps only events that cover whole days.
func AllDayEvents(events []models.FeedEvent) []models.FeedEvent {
	var out []models.FeedEvent
	for _, e := range events {
		if e.AllDay {
			out = append(out, e)
		}
	}
	return out
}

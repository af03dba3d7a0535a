package signal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"otc-signals/internal/domain"
)

const minutesPerDay = 24 * 60

// Clock is a wall-clock time of day.
type Clock struct {
	Hour, Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid time %q: want HH:MM", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", raw)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// Window is the span signals are spread over. It is anchored on the date of
// the moment it was built, in that moment's location.
type Window struct {
	Start time.Time
	End   time.Time

	startClock Clock
	endClock   Clock
}

// NewWindow shifts the end a day forward when it falls before the start.
// Blank or malformed bounds use the 07:00 and 23:59 defaults.
func NewWindow(now time.Time, start, end string) Window {
	startClock, err := ParseClock(start)
	if err != nil {
		startClock, _ = ParseClock(domain.DefaultStartTime)
	}
	endClock, err := ParseClock(end)
	if err != nil {
		endClock, _ = ParseClock(domain.DefaultEndTime)
	}

	y, mo, d := now.Date()
	loc := now.Location()
	w := Window{
		Start:      time.Date(y, mo, d, startClock.Hour, startClock.Minute, 0, 0, loc),
		End:        time.Date(y, mo, d, endClock.Hour, endClock.Minute, 0, 0, loc),
		startClock: startClock,
		endClock:   endClock,
	}
	if endClock.minutes() < startClock.minutes() {
		w.End = w.End.AddDate(0, 0, 1)
	}
	return w
}

// Crosses reports whether ordering must treat early hours as the next day.
// Only the hour is compared, so a window such as 10:30-10:00 does not count.
func (w Window) Crosses() bool {
	return w.endClock.Hour < w.startClock.Hour
}

func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// EntryTimes spaces n entries evenly, never on the window edges.
func (w Window) EntryTimes(n int) []string {
	if n <= 0 {
		return nil
	}
	span := float64(w.Duration())
	out := make([]string, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(span / float64(n+1) * float64(i+1))
		out[i] = w.Start.Add(offset).Format("15:04")
	}
	return out
}

// Contains reports whether the clock time of t lies inside the window,
// wrapping past midnight when the end precedes the start.
func (w Window) Contains(t time.Time) bool {
	t = t.In(w.Start.Location())
	now := t.Hour()*60 + t.Minute()
	start, end := w.startClock.minutes(), w.endClock.minutes()
	if end >= start {
		return now >= start && now <= end
	}
	return now >= start || now <= end
}

// MinuteKey maps HH:MM onto a sortable minute count. Malformed values sort first.
func (w Window) MinuteKey(hhmm string) int {
	c, err := ParseClock(hhmm)
	if err != nil {
		return -1
	}
	key := c.minutes()
	if w.Crosses() && c.Hour < w.startClock.Hour {
		key += minutesPerDay
	}
	return key
}

// Sort orders signals by entry time, keeping input order among equal times.
func (w Window) Sort(signals []domain.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return w.MinuteKey(signals[i].EntryTime) < w.MinuteKey(signals[j].EntryTime)
	})
}

// Dedupe walks a sorted list once and keeps a signal only when it is at least
// minGap minutes from the last signal kept.
func (w Window) Dedupe(signals []domain.Signal, minGap int) []domain.Signal {
	out := make([]domain.Signal, 0, len(signals))
	last := 0
	for i, s := range signals {
		key := w.MinuteKey(s.EntryTime)
		if i == 0 || abs(key-last) >= minGap {
			out = append(out, s)
			last = key
		}
	}
	return out
}

// SignalsPerPair is the base count before the random bonus of zero or one.
func SignalsPerPair(pairs int) int {
	switch {
	case pairs <= 5:
		return 4
	case pairs <= 10:
		return 3
	default:
		return 2
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

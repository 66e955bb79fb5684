package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrInvalidWeekday   = errors.New("invalid weekday token")
	ErrInvalidTimeRange = errors.New("invalid time range")
)

const minutesPerDay = 24 * 60

// weekdayTokens индексируется time.Weekday (0 = Sunday)
var weekdayTokens = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WeekdayToken возвращает короткое имя дня недели ("mon", "tue", ...)
func WeekdayToken(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return weekdayTokens[d]
}

// ParseWeekday разбирает токен дня недели
func ParseWeekday(token string) (time.Weekday, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for i, name := range weekdayTokens {
		if name == t {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, token)
}

// TimeRange интервал внутри дня в минутах от полуночи, [Start, End)
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewTimeRange создаёт проверенный интервал
func NewTimeRange(start, end int) (TimeRange, error) {
	if start < 0 || end > minutesPerDay || start >= end {
		return TimeRange{}, fmt.Errorf("%w: %d-%d", ErrInvalidTimeRange, start, end)
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseTimeRange разбирает строку вида "09:00-17:00"
func ParseTimeRange(s string) (TimeRange, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}

	start, err := parseClock(parts[0], false)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeRange, s, err)
	}

	end, err := parseClock(parts[1], true)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeRange, s, err)
	}

	return NewTimeRange(start, end)
}

// parseClock разбирает "HH:MM" в минуты. "24:00" допустимо только как конец интервала.
func parseClock(s string, isEnd bool) (int, error) {
	hm := strings.Split(strings.TrimSpace(s), ":")
	if len(hm) != 2 || len(hm[0]) == 0 || len(hm[1]) != 2 {
		return 0, fmt.Errorf("bad clock %q", s)
	}

	h, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, fmt.Errorf("bad hour %q", hm[0])
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, fmt.Errorf("bad minute %q", hm[1])
	}

	if h == 24 && m == 0 && isEnd {
		return minutesPerDay, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock out of range %q", s)
	}
	return h*60 + m, nil
}

// On возвращает абсолютные границы интервала в указанный календарный день
func (r TimeRange) On(day time.Time) (time.Time, time.Time) {
	y, mo, d := day.Date()
	loc := day.Location()
	start := time.Date(y, mo, d, r.Start/60, r.Start%60, 0, 0, loc)
	end := time.Date(y, mo, d, r.End/60, r.End%60, 0, 0, loc)
	return start, end
}

// Contains проверяет что [start, end) целиком внутри интервала в день start
func (r TimeRange) Contains(start, end time.Time) bool {
	rangeStart, rangeEnd := r.On(start)
	return !start.Before(rangeStart) && !end.After(rangeEnd)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}

// AvailabilityMap недельное расписание тренера: день недели -> интервалы.
// Пересекающиеся интервалы внутри дня не нормализуются.
type AvailabilityMap map[time.Weekday][]TimeRange

// ParseAvailabilityMap строит карту из сырого представления {"mon": ["09:00-17:00"]}
func ParseAvailabilityMap(raw map[string][]string) (AvailabilityMap, error) {
	result := make(AvailabilityMap, len(raw))
	for token, ranges := range raw {
		day, err := ParseWeekday(token)
		if err != nil {
			return nil, err
		}

		parsed := make([]TimeRange, 0, len(ranges))
		for _, s := range ranges {
			r, err := ParseTimeRange(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", token, err)
			}
			parsed = append(parsed, r)
		}
		result[day] = append(result[day], parsed...)
	}
	return result, nil
}

// RangesFor возвращает интервалы для дня недели (nil если тренер не работает)
func (m AvailabilityMap) RangesFor(day time.Weekday) []TimeRange {
	return m[day]
}

// Raw возвращает сырое представление карты
func (m AvailabilityMap) Raw() map[string][]string {
	raw := make(map[string][]string, len(m))
	for day, ranges := range m {
		strs := make([]string, 0, len(ranges))
		for _, r := range ranges {
			strs = append(strs, r.String())
		}
		raw[WeekdayToken(day)] = strs
	}
	return raw
}

// Weekdays возвращает дни с заданными интервалами в порядке недели
func (m AvailabilityMap) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(m))
	for day, ranges := range m {
		if len(ranges) > 0 {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func (m AvailabilityMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Raw())
}

func (m *AvailabilityMap) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode availability: %w", err)
	}

	parsed, err := ParseAvailabilityMap(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

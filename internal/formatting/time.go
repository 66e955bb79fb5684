package formatting

import (
	"fmt"
	"time"
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDateWithWeekday форматирует дату с коротким днём недели: "Пн 07.01.2030"
func FormatDateWithWeekday(t time.Time) string {
	return fmt.Sprintf("%s %s", WeekdayShortName(t.Weekday()), FormatDate(t))
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

var weekdayNames = [...]string{
	"Воскресенье",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

var weekdayShortNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// WeekdayName возвращает название дня недели на русском
func WeekdayName(day time.Weekday) string {
	if day >= 0 && int(day) < len(weekdayNames) {
		return weekdayNames[day]
	}
	return "Неизвестно"
}

// WeekdayShortName возвращает краткое название дня недели на русском
func WeekdayShortName(day time.Weekday) string {
	if day >= 0 && int(day) < len(weekdayShortNames) {
		return weekdayShortNames[day]
	}
	return "?"
}

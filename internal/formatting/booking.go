package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// FormatBookingNotification текст уведомления тренеру о новой записи
func FormatBookingNotification(event model.BookingEvent, loc *time.Location) string {
	b := event.Booking
	start := b.StartTime.In(loc)
	end := b.EndTime.In(loc)

	var sb strings.Builder
	sb.WriteString("🆕 Новая запись\n\n")
	fmt.Fprintf(&sb, "📅 %s, %s\n", WeekdayName(start.Weekday()), FormatDate(start))
	fmt.Fprintf(&sb, "🕐 %s (%s)\n", FormatTimeRange(start, end), FormatDuration(int(end.Sub(start).Minutes())))
	fmt.Fprintf(&sb, "👤 %s\n", event.Client.Name)
	fmt.Fprintf(&sb, "📞 %s\n", event.Client.Contact)
	if b.Note != "" {
		fmt.Fprintf(&sb, "💬 %s\n", b.Note)
	}
	return sb.String()
}

// FormatBookingList список предстоящих записей, сгруппированный по дням
func FormatBookingList(bookings []model.Booking, loc *time.Location) string {
	if len(bookings) == 0 {
		return "📭 Предстоящих записей нет"
	}

	var sb strings.Builder
	sb.WriteString("📅 Предстоящие записи:\n")

	var lastDay string
	for _, b := range bookings {
		start := b.StartTime.In(loc)
		end := b.EndTime.In(loc)

		day := FormatDateWithWeekday(start)
		if day != lastDay {
			fmt.Fprintf(&sb, "\n%s\n", day)
			lastDay = day
		}
		fmt.Fprintf(&sb, "  %s %s, %s\n", FormatTimeRange(start, end), b.ClientName, b.ClientContact)
	}
	return sb.String()
}

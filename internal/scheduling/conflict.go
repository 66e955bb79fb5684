package scheduling

import (
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// IntervalsOverlap проверяет пересечение полуоткрытых интервалов [a, b) и [c, d).
// Интервал, заканчивающийся ровно в момент начала другого, конфликтом не считается.
func IntervalsOverlap(a, b, c, d time.Time) bool {
	return a.Before(d) && c.Before(b)
}

// Overlaps проверяет пересекается ли кандидат хотя бы с одним бронированием.
// Все переданные бронирования считаются актуальными, фильтрация - задача хранилища.
func Overlaps(start, end time.Time, existing []model.Booking) bool {
	for i := range existing {
		if IntervalsOverlap(start, end, existing[i].StartTime, existing[i].EndTime) {
			return true
		}
	}
	return false
}

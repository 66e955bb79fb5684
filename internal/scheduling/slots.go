// Package scheduling содержит чистые функции построения слотов и проверки конфликтов.
// Функции работают над снимками данных и никогда не берут блокировок.
package scheduling

import (
	"sort"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// GenerateSlots строит слоты фиксированной длительности для дня day.
//
// Обходятся все интервалы дня, результат отсортирован по времени начала.
// Слоты, начинающиеся не позже now, и слоты, пересекающиеся с бронированиями,
// отбрасываются. Если интервалы дня пересекаются, из пересекающихся слотов
// остаётся более ранний.
func GenerateSlots(availability model.AvailabilityMap, day time.Time, bookings []model.Booking, slotDuration time.Duration, now time.Time) []model.Slot {
	if slotDuration <= 0 {
		return nil
	}

	ranges := availability.RangesFor(day.Weekday())
	if len(ranges) == 0 {
		return nil
	}

	var candidates []model.Slot
	for _, r := range ranges {
		rangeStart, rangeEnd := r.On(day)

		for slotStart := rangeStart; !slotStart.Add(slotDuration).After(rangeEnd); slotStart = slotStart.Add(slotDuration) {
			slotEnd := slotStart.Add(slotDuration)

			// Прошедшие и текущие слоты не предлагаем
			if !slotStart.After(now) {
				continue
			}

			if Overlaps(slotStart, slotEnd, bookings) {
				continue
			}

			candidates = append(candidates, model.Slot{Start: slotStart, End: slotEnd})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})

	slots := make([]model.Slot, 0, len(candidates))
	for _, c := range candidates {
		if n := len(slots); n > 0 && slots[n-1].Overlaps(c) {
			continue
		}
		slots = append(slots, c)
	}

	return slots
}

package model

import "time"

// Slot вычисляемый интервал для записи, никогда не сохраняется
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps проверяет пересечение полуоткрытых интервалов [Start, End)
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

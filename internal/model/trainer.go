package model

import "time"

type Trainer struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"` // длительность слота в минутах
	TelegramChatID      *int64    `json:"telegram_chat_id"`      // указатель - может быть nil
	CreatedAt           time.Time `json:"created_at"`
}

// SlotDuration возвращает длительность слота или fallback если не задана
func (t *Trainer) SlotDuration(fallback time.Duration) time.Duration {
	if t == nil || t.SlotDurationMinutes <= 0 {
		return fallback
	}
	return time.Duration(t.SlotDurationMinutes) * time.Minute
}

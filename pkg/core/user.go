package core

import (
	"strings"
	"time"
)

// Locale is the language used to render replies and notifications
type Locale string

const (
	LocaleRU Locale = "RU"
	LocaleEN Locale = "EN"
)

// DefaultLocale is assigned to newly registered users
const DefaultLocale = LocaleRU

// ParseLocale maps a language code such as "en" or "ru-RU" to a Locale,
// falling back to DefaultLocale.
func ParseLocale(code string) Locale {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(code, string(LocaleEN)):
		return LocaleEN
	case strings.HasPrefix(code, string(LocaleRU)):
		return LocaleRU
	default:
		return DefaultLocale
	}
}

// User is a bot user identified by its chat
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ChatID    int64     `json:"chat_id" gorm:"uniqueIndex;not null"`
	Username  string    `json:"username" gorm:"size:64"`
	Locale    Locale    `json:"locale" gorm:"size:2;not null;default:RU"`
	CreatedAt time.Time `json:"created_at"`
}

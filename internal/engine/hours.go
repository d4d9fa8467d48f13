package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Биржевые выходные NSE на 2026 год.
var nseHolidays = map[string]bool{
	"2026-01-26": true, // День Республики
	"2026-03-03": true, // Холи
	"2026-03-21": true, // Ид-уль-Фитр
	"2026-04-01": true, // Закрытие финансового года
	"2026-04-03": true, // Страстная пятница
	"2026-04-14": true, // Амбедкар Джаянти
	"2026-05-01": true, // День Махараштры
	"2026-05-28": true, // Бакри Ид
	"2026-06-26": true, // Мухаррам
	"2026-08-15": true, // День Независимости
	"2026-09-14": true, // Ганеш Чатуртхи
	"2026-10-02": true, // Ганди Джаянти
	"2026-10-20": true, // Дуссехра
	"2026-11-09": true, // Дивали
	"2026-11-10": true, // Балипратипада
	"2026-11-24": true, // Гурунанак Джаянти
	"2026-12-25": true, // Рождество
}

func isTradingDay(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !nseHolidays[now.Format("2006-01-02")]
}

// parseClock разбирает время вида "15:04" в минуты от полуночи.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("Некорректное время: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("Некорректный час: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("Некорректная минута: %q", s)
	}
	return h*60 + m, nil
}

func minutesOfDay(now time.Time) int {
	return now.Hour()*60 + now.Minute()
}

// atOrAfter сообщает, наступило ли время clock ("15:04") в пределах суток now.
func atOrAfter(now time.Time, clock string) bool {
	mins, err := parseClock(clock)
	if err != nil {
		return false
	}
	return minutesOfDay(now) >= mins
}

func isMarketHours(now time.Time, open, close string) bool {
	openMins, err := parseClock(open)
	if err != nil {
		return false
	}
	closeMins, err := parseClock(close)
	if err != nil {
		return false
	}
	mins := minutesOfDay(now)
	return mins >= openMins && mins < closeMins
}

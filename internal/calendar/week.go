package calendar

import (
	"fmt"
	"time"

	"ecochef/internal/locale"
)

// WeekStart returns midnight of the Monday of the week containing t, in loc.
// Sunday belongs to the week that started six days earlier.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
}

var monthNames = map[locale.Language][12]string{
	locale.Spanish: {"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
	locale.English: {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	locale.Portuguese: {"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro"},
}

// Label renders the human readable name of the week starting at weekStart.
func Label(weekStart time.Time, lang locale.Language) string {
	day := weekStart.Day()
	month := weekStart.Month()

	switch lang {
	case locale.English:
		return fmt.Sprintf("Week of %s %d", monthNames[locale.English][month-1], day)
	case locale.Chinese:
		return fmt.Sprintf("%d月%d日这一周", int(month), day)
	case locale.Portuguese:
		return fmt.Sprintf("Semana de %d de %s", day, monthNames[locale.Portuguese][month-1])
	default:
		return fmt.Sprintf("Semana del %d de %s", day, monthNames[locale.Spanish][month-1])
	}
}

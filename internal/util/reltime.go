package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

var ptBRMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "agora mesmo", DivBy: 1},
	{D: 2 * time.Minute, Format: "há 1 minuto", DivBy: 1},
	{D: time.Hour, Format: "há %d minutos", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "há 1 hora", DivBy: 1},
	{D: humanize.Day, Format: "há %d horas", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "há 1 dia", DivBy: 1},
	{D: humanize.Month, Format: "há %d dias", DivBy: humanize.Day},
	{D: 2 * humanize.Month, Format: "há 1 mês", DivBy: 1},
	{D: humanize.Year, Format: "há %d meses", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "há 1 ano", DivBy: 1},
	{D: humanize.LongTime, Format: "há %d anos", DivBy: humanize.Year},
}

// RelativeTimeBR renders then relative to now in Portuguese ("há 3 horas").
// Future timestamps (clock skew) read as "agora mesmo".
func RelativeTimeBR(then, now time.Time) string {
	if then.After(now) {
		return "agora mesmo"
	}
	return humanize.CustomRelTime(then, now, "", "", ptBRMagnitudes)
}

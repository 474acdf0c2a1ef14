// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak/localize"
)

const (
	iconParty        = "🎉"
	iconCyclist      = "🚴"
	iconWomanCyclist = "🚴‍♀️"
)

var i18nVars = map[string]localize.MsgID{
	"predicted riders": "Predicted riders",
	"previous day":     "Previous day",
	"change":           "Change",
	"n/a":              "n/a",
	"date":             "Date",
	"high":             "High",
	"low":              "Low",
	"precipitation":    "Precipitation",
	"feels like":       "Feels like",
	"wind":             "Wind",
	"sunrise":          "Sunrise",
	"sunset":           "Sunset",
	"holiday":          "Holiday",
}

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    p.timeFormat,
		"localizedTime": p.localizedTime,
		"dateFormat":    p.dateFormat,
		"floatFormat":   p.floatFormat,
		"intcomma":      p.intcomma,
		"delta":         p.delta,
		"riderIcon":     riderIcon,
		"pad":           pad,
		"loc":           p.loc,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	if raw, ok := i18nVars[strings.ToLower(val)]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) localizedTime(val time.Time) string {
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func (p *Presenter) timeFormat(val time.Time, fmt string) string {
	if val.IsZero() {
		return "--:--"
	}
	return val.Format(fmt)
}

func (p *Presenter) dateFormat(val time.Time) string {
	return val.Format("Mon 01/02")
}

// floatFormat renders missing values (NaN) as a dash.
func (p *Presenter) floatFormat(val float64, precision int) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return "-"
	}
	return fmt.Sprintf("%.*f", precision, val)
}

func (p *Presenter) intcomma(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return p.loc("n/a")
	}
	return p.humanizer.Intcomma(int64(math.Round(val)))
}

// delta renders the relative change of a prediction against its previous count.
func (p *Presenter) delta(view PredictionView) string {
	delta, ok := view.Delta()
	if !ok {
		return p.loc("n/a")
	}
	return fmt.Sprintf("%+.1f%%", delta)
}

// riderIcon alternates the cyclist depending on whether the rounded prediction is even.
func riderIcon(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return iconCyclist
	}
	if int64(math.RoundToEven(val))%2 == 0 {
		return iconParty + " " + iconWomanCyclist
	}
	return iconParty + " " + iconCyclist
}

// pad fills val with spaces up to the given display width.
func pad(val string, width int) string {
	return runewidth.FillRight(val, width)
}

// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/feature"
	"github.com/ridecast/ridecast/internal/i18n"
	"github.com/ridecast/ridecast/internal/weather"
)

// PredictionView is the template context of a single prediction.
type PredictionView struct {
	feature.Result
}

// ForecastView is a forecast row together with the day's sunrise and sunset in the
// city's time zone.
type ForecastView struct {
	weather.DailyFeatureRow

	Sunrise time.Time
	Sunset  time.Time
}

type Presenter struct {
	prediction *template.Template
	forecast   *template.Template
	localizer  *spreak.Localizer
	humanizer  *humanize.Humanizer
	latitude   float64
	longitude  float64
	location   *time.Location
}

// New parses the configured templates and renders them once with sample data, so that
// broken templates are reported at startup.
func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	pres := &Presenter{
		localizer: loc,
		humanizer: i18n.Humanizer(loc),
		latitude:  conf.City.Latitude,
		longitude: conf.City.Longitude,
		location:  conf.Location(),
	}

	tpl, err := template.New("prediction").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Prediction)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prediction template: %w", err)
	}
	pres.prediction = tpl

	tpl, err = template.New("forecast").Funcs(pres.templateFuncMap()).Parse(conf.Templates.Forecast)
	if err != nil {
		return nil, fmt.Errorf("failed to parse forecast template: %w", err)
	}
	pres.forecast = tpl

	sample := weather.DailyFeatureRow{Date: weather.Date(time.Now(), pres.location), PrevCount: 1}
	if _, err = pres.RenderPrediction(feature.Result{Date: sample.Date, Prediction: 1, PrevCount: 1}); err != nil {
		return nil, err
	}
	if _, err = pres.RenderForecast([]weather.DailyFeatureRow{sample}); err != nil {
		return nil, err
	}

	return pres, nil
}

// ForecastViews adds sunrise and sunset to each row.
func (p *Presenter) ForecastViews(rows []weather.DailyFeatureRow) []ForecastView {
	views := make([]ForecastView, 0, len(rows))
	for _, row := range rows {
		rise, set := sunrise.SunriseSunset(p.latitude, p.longitude, row.Date.Year(), row.Date.Month(),
			row.Date.Day())
		views = append(views, ForecastView{
			DailyFeatureRow: row,
			Sunrise:         rise.In(p.location),
			Sunset:          set.In(p.location),
		})
	}
	return views
}

func (p *Presenter) RenderPrediction(result feature.Result) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := p.prediction.Execute(buf, PredictionView{Result: result}); err != nil {
		return "", fmt.Errorf("failed to render prediction template: %w", err)
	}
	return buf.String(), nil
}

func (p *Presenter) RenderForecast(rows []weather.DailyFeatureRow) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := p.forecast.Execute(buf, p.ForecastViews(rows)); err != nil {
		return "", fmt.Errorf("failed to render forecast template: %w", err)
	}
	return buf.String(), nil
}

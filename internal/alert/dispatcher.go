package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/teo1264/enel-system/internal/batch"
)

// Dispatcher renders high consumption outcomes and sends them over a
// channel. It satisfies the batch processor's notifier contract.
type Dispatcher struct {
	channel  Channel
	template *Template
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(channel Channel, template *Template) (*Dispatcher, error) {
	if channel == nil {
		return nil, errors.New("alert dispatcher: nil channel")
	}
	if template == nil {
		var err error
		template, err = NewTemplate("")
		if err != nil {
			return nil, err
		}
	}
	return &Dispatcher{channel: channel, template: template}, nil
}

// HighConsumption sends one alert for an accepted outcome whose
// assessment crossed the threshold.
func (d *Dispatcher) HighConsumption(ctx context.Context, o batch.Outcome) error {
	if d == nil || d.channel == nil {
		return errors.New("alert dispatcher: nil channel")
	}
	if o.Record == nil || o.Assessment == nil {
		return errors.New("alert dispatcher: outcome has no record or assessment")
	}

	site := o.SiteName
	if site == "" {
		site = "(not in registry)"
	}
	data := TemplateData{
		Site:              site,
		Account:           o.Record.AccountID,
		Period:            o.Record.Period.String(),
		ConsumptionKWh:    fmt.Sprintf("%.0f", o.Record.ConsumptionKWh),
		BaselineKWh:       fmt.Sprintf("%.2f", o.Assessment.BaselineKWh),
		SampleCount:       o.Assessment.SampleCount,
		PercentOfBaseline: fmt.Sprintf("%.1f", o.Assessment.PercentOfBaseline),
		AmountDue:         o.Record.TotalAmount.StringFixed(2),
		DueDate:           o.Record.DueDate.Format("02/01/2006"),
		SourceFile:        o.SourceFile,
	}
	content, err := d.template.Render(data)
	if err != nil {
		return err
	}
	return d.channel.Send(ctx, content)
}

package notify

import (
	"context"
	"gradewatch/internal/components/assert"
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/grades"
)

const (
	report_notify_render = "notify.render"
	report_notify_send   = "notify.send"
)

type Notifier struct {
	mailer Mailer
	tel    telemetry.API
}

func NewNotifier(mailer Mailer, tel telemetry.API) Notifier {
	assert.NotNil(mailer)
	assert.NotNil(tel)
	return Notifier{
		mailer: mailer,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

// Notify emails a report of the changes, nothing is sent if there are none.
// delivery is best effort, failures are reported and not returned.
func (n Notifier) Notify(ctx context.Context, changes []grades.Change) {
	if len(changes) == 0 {
		n.tel.ReportDebug("no grade difference detected, no email sent")
		return
	}

	report, err := BuildReport(changes)
	if err != nil {
		n.tel.ReportBroken(report_notify_render, err)
		return
	}

	err = n.mailer.Send(ctx, Message{
		Subject: report.Subject,
		Text:    report.Text,
		HTML:    report.HTML,
	})
	if err != nil {
		n.tel.ReportBroken(report_notify_send, err, telemetry.KV{Key: "subject", Value: report.Subject})
		return
	}
	n.tel.ReportDebug("email sent", telemetry.KV{Key: "subject", Value: report.Subject})
}

// NotifyDifference notifies of every subject in next that differs from prev.
func (n Notifier) NotifyDifference(ctx context.Context, prev, next []grades.Record) {
	n.Notify(ctx, grades.ComputeChanges(prev, next))
}

package services

import (
	"bytes"
	"context"
	"fleet-backend/config"
	"fmt"
	"html/template"
	"log"
	"sort"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"
)

// NotificationService reports generation runs by e-mail (SendGrid) and by
// push to a per-organization FCM topic. Either channel may be disabled.
type NotificationService struct {
	email       *sendgrid.Client
	messaging   *messaging.Client
	from        *mail.Email
	reportEmail string
	appName     string
}

func NewNotificationService(ctx context.Context, cfg *config.Config) *NotificationService {
	ns := &NotificationService{
		from:        mail.NewEmail(cfg.AppName, cfg.SendGridFrom),
		reportEmail: cfg.ReportEmail,
		appName:     cfg.AppName,
	}

	if cfg.SendGridAPIKey != "" && cfg.ReportEmail != "" {
		ns.email = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	} else {
		log.Println("⚠️  SendGrid API key or REPORT_EMAIL not set, run e-mails disabled")
	}

	if cfg.FirebaseCredPath != "" {
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredPath))
		if err != nil {
			log.Printf("⚠️  Firebase init failed, push disabled: %v", err)
			return ns
		}
		client, err := app.Messaging(ctx)
		if err != nil {
			log.Printf("⚠️  Firebase messaging init failed, push disabled: %v", err)
			return ns
		}
		ns.messaging = client
	}
	return ns
}

// ============================================================
// RUN NOTIFICATIONS
// ============================================================

func (ns *NotificationService) NotifyRun(ctx context.Context, summary *RunSummary) {
	if ns.email != nil {
		ns.sendRunEmail(ctx, summary)
	}
	if ns.messaging != nil {
		for _, oc := range createdByOrganization(summary) {
			ns.sendOrganizationPush(ctx, oc.OrganizationID, oc.Created, summary.Date)
		}
	}
}

func (ns *NotificationService) sendRunEmail(ctx context.Context, summary *RunSummary) {
	subject := fmt.Sprintf("%s: %d automatic activities generated for %s", ns.appName, summary.ActivitiesCreated, summary.Date)
	plain := fmt.Sprintf("%d rules fired, %d activities created, %d duplicates skipped, %d failures.",
		summary.RulesFired, summary.ActivitiesCreated, summary.DuplicatesSkipped, summary.Failures)

	htmlBody, err := buildRunEmailHTML(ns.appName, summary)
	if err != nil {
		log.Printf("❌ Run e-mail template error: %v", err)
		return
	}

	msg := mail.NewSingleEmail(ns.from, subject, mail.NewEmail("", ns.reportEmail), plain, htmlBody)
	resp, err := ns.email.SendWithContext(ctx, msg)
	if err != nil {
		log.Printf("❌ Run e-mail send error: %v", err)
		return
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("✅ Run e-mail sent to %s", ns.reportEmail)
	} else {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

func (ns *NotificationService) sendOrganizationPush(ctx context.Context, orgID uuid.UUID, created int, date string) {
	msg := &messaging.Message{
		Topic: OrganizationTopic(orgID),
		Notification: &messaging.Notification{
			Title: "Scheduled activities",
			Body:  fmt.Sprintf("%d activities were scheduled for %s", created, date),
		},
		Data: map[string]string{
			"type":            "automatic_activities",
			"organization_id": orgID.String(),
			"date":            date,
		},
	}
	if _, err := ns.messaging.Send(ctx, msg); err != nil {
		log.Printf("❌ FCM send error for organization %s: %v", orgID, err)
		return
	}
	log.Printf("✅ Push notification sent to organization %s", orgID)
}

// OrganizationTopic is the FCM topic the apps of an organization subscribe to.
func OrganizationTopic(orgID uuid.UUID) string {
	return "org-" + orgID.String()
}

type organizationCount struct {
	OrganizationID uuid.UUID
	Created        int
}

// createdByOrganization sums created activities per organization, skipping
// organizations that got none.
func createdByOrganization(summary *RunSummary) []organizationCount {
	counts := map[uuid.UUID]int{}
	for _, o := range summary.Outcomes {
		if o.Created > 0 {
			counts[o.OrganizationID] += o.Created
		}
	}

	result := make([]organizationCount, 0, len(counts))
	for id, n := range counts {
		result = append(result, organizationCount{OrganizationID: id, Created: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrganizationID.String() < result[j].OrganizationID.String()
	})
	return result
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

var runEmailTemplate = template.Must(template.New("run").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1D6FB9; margin-top: 0;">🚚 Automatic activities for {{.Summary.Date}}</h2>
		<p>{{.Summary.RulesFired}} of {{.Summary.RulesEvaluated}} rules fired.</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>{{.Summary.ActivitiesCreated}} created</strong></p>
			<p style="margin: 4px 0; color: #666;">{{.Summary.DuplicatesSkipped}} already existed</p>
			{{if .Summary.Failures}}<p style="margin: 4px 0; color: #e53e3e;"><strong>{{.Summary.Failures}} failed</strong></p>{{end}}
		</div>
		<table style="width: 100%; border-collapse: collapse; font-size: 14px;">
			<tr><th align="left">Rule</th><th align="left">Type</th><th align="right">Created</th><th align="right">Errors</th></tr>
			{{range .Summary.Outcomes}}<tr><td>{{.RuleID}}</td><td>{{.ActivityType}}</td><td align="right">{{.Created}}</td><td align="right">{{len .Errors}}</td></tr>
			{{end}}
		</table>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">Sent by {{.AppName}}</p>
	</div>
</body>
</html>`))

func buildRunEmailHTML(appName string, summary *RunSummary) (string, error) {
	var buf bytes.Buffer
	err := runEmailTemplate.Execute(&buf, map[string]interface{}{
		"AppName": appName,
		"Summary": summary,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

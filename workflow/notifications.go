package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
)

const (
	ExpenseEventSubmitted = "submitted"
	ExpenseEventDecided   = "decided"
)

// ExpenseEvent is the notification payload published after an expense
// mutation commits. Delivery is best-effort in both directions: a publish
// failure never rolls back the mutation, and the push handler acks poisoned
// messages instead of retrying forever.
type ExpenseEvent struct {
	Action        string               `json:"action"`
	ExpenseId     int                  `json:"expense_id"`
	BudgetId      int                  `json:"budget_id"`
	Department    string               `json:"department"`
	Amount        decimal.Decimal      `json:"amount"`
	VendorName    string               `json:"vendor_name"`
	Status        models.ExpenseStatus `json:"status"`
	CreatorId     int                  `json:"creator_id"`
	ApprovalNotes string               `json:"approval_notes"`
	CorrelationId string               `json:"correlation_id"`
}

// Notifier fans expense events out to email. When a Pub/Sub topic is
// configured events go through it (and come back on the /pubsub push
// endpoint); otherwise they are handled inline.
type Notifier struct {
	Topic  *pubsub.Topic
	Mailer *config.Mailer
	Logger *logrus.Logger
	DB     *gorm.DB
}

func (n *Notifier) Publish(ctx context.Context, ev ExpenseEvent) error {
	if n.Topic == nil {
		return n.Handle(ctx, ev)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := n.Topic.Publish(publishCtx, &pubsub.Message{Data: data}).Get(publishCtx); err != nil {
		return &utils.ExternalServiceError{Service: "pubsub", Err: err}
	}
	return nil
}

// Handle resolves recipients and sends the emails for one event. Called by
// the /pubsub push endpoint, or directly when Pub/Sub is not configured.
func (n *Notifier) Handle(ctx context.Context, ev ExpenseEvent) error {
	if n.Mailer == nil {
		// Mail relay not configured for this deployment; nothing to deliver.
		return nil
	}

	switch ev.Action {
	case ExpenseEventSubmitted:
		return n.notifyApprovers(ctx, ev)
	case ExpenseEventDecided:
		return n.notifyCreator(ctx, ev)
	default:
		return fmt.Errorf("unknown expense event action %q", ev.Action)
	}
}

func (n *Notifier) notifyApprovers(ctx context.Context, ev ExpenseEvent) error {
	hods, err := models.ListDepartmentHODs(n.DB.WithContext(ctx), ev.Department)
	if err != nil {
		return err
	}

	var failed []string
	for _, hod := range hods {
		body := expenseApprovalEmail(ev.Amount, ev.VendorName)
		if err := n.Mailer.Send(hod.Email, "New Expense Awaiting Approval", body); err != nil {
			config.LogError(n.Logger, "notifications.go", "notifyApprovers", "Send", hod.Email, err)
			failed = append(failed, hod.Email)
		}
	}
	if len(failed) > 0 {
		return &utils.ExternalServiceError{
			Service: "mail",
			Err:     fmt.Errorf("delivery failed for %s", strings.Join(failed, ", ")),
		}
	}
	return nil
}

func (n *Notifier) notifyCreator(ctx context.Context, ev ExpenseEvent) error {
	creator, err := models.GetUserById(n.DB.WithContext(ctx), ev.CreatorId)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Expense %s", ev.Status)
	body := expenseStatusEmail(ev.Status, ev.Amount, ev.ApprovalNotes)
	if err := n.Mailer.Send(creator.Email, subject, body); err != nil {
		return &utils.ExternalServiceError{Service: "mail", Err: err}
	}
	return nil
}

func expenseApprovalEmail(amount decimal.Decimal, vendorName string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Expense Approval Required</h2>
  <p>A new expense awaits your approval:</p>
  <ul>
    <li><strong>Amount:</strong> %s</li>
    <li><strong>Vendor:</strong> %s</li>
  </ul>
  <p>Open the approvals queue to review it.</p>
</div>`, amount.StringFixed(2), vendorName)
}

func expenseStatusEmail(status models.ExpenseStatus, amount decimal.Decimal, notes string) string {
	statusColor := "red"
	if status == models.ExpenseStatusApproved {
		statusColor = "green"
	}
	notesLine := ""
	if notes != "" {
		notesLine = fmt.Sprintf("<p><strong>Notes:</strong> %s</p>", notes)
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Expense %s</h2>
  <p style="color: %s; font-weight: bold;">Your expense has been %s.</p>
  <p><strong>Amount:</strong> %s</p>
  %s
</div>`, status, statusColor, strings.ToLower(string(status)), amount.StringFixed(2), notesLine)
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awb-bank/audit-agent/pkg/agent"
)

const (
	actorName = "audit-agent"
	divider   = 70
)

// artifactID builds timestamped identifiers like ALERT-20250114-093055.
func artifactID(prefix string, ts time.Time) string {
	return prefix + "-" + ts.Format("20060102-150405")
}

func writeArtifact(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// AlertTool files a security alert for a user as a JSON record plus a
// human-readable text rendering.
type AlertTool struct {
	users UserIndex
	dir   string
	now   func() time.Time
}

func NewAlertTool(users UserIndex, dir string) *AlertTool {
	return &AlertTool{users: users, dir: dir, now: time.Now}
}

func (t *AlertTool) Name() string { return "create_security_alert" }

func (t *AlertTool) Description() string {
	return "File a security alert for a user. Severity is LOW, MEDIUM, HIGH, or CRITICAL."
}

func (t *AlertTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	bound, err := bindArgs([]string{"user_id", "severity", "reason"}, 3, args, kwargs)
	if err != nil {
		return "", err
	}
	userID, err := textArg(bound, "user_id")
	if err != nil {
		return "", err
	}
	severity, err := textArg(bound, "severity")
	if err != nil {
		return "", err
	}
	reason, err := textArg(bound, "reason")
	if err != nil {
		return "", err
	}

	if !t.users.UserExists(ctx, userID) {
		return fmt.Sprintf("Cannot create alert: User %s has no audit events.", userID), nil
	}

	ts := t.now()
	alertID := artifactID("ALERT", ts)

	record := map[string]any{
		"alert_id":   alertID,
		"user_id":    userID,
		"severity":   severity,
		"reason":     reason,
		"timestamp":  ts.Format(time.RFC3339),
		"status":     "OPEN",
		"created_by": actorName,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "Failed to create alert: " + err.Error(), nil
	}
	if err := writeArtifact(t.dir, alertID+".json", data); err != nil {
		return "Failed to create alert: " + err.Error(), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SECURITY ALERT\n%s\n\n", strings.Repeat("=", divider))
	fmt.Fprintf(&b, "Alert ID: %s\nUser ID: %s\nSeverity: %s\nStatus: OPEN\n", alertID, userID, severity)
	fmt.Fprintf(&b, "Created: %s\n\nREASON:\n%s\n%s\n", ts.Format(time.RFC3339), strings.Repeat("-", divider), reason)
	if err := writeArtifact(t.dir, alertID+".txt", []byte(b.String())); err != nil {
		return "Failed to create alert: " + err.Error(), nil
	}

	return fmt.Sprintf("Security alert created: %s (severity: %s)", alertID, severity), nil
}

// ReportTool writes a security analysis report for a user.
type ReportTool struct {
	users UserIndex
	dir   string
	now   func() time.Time
}

func NewReportTool(users UserIndex, dir string) *ReportTool {
	return &ReportTool{users: users, dir: dir, now: time.Now}
}

func (t *ReportTool) Name() string { return "generate_report" }

func (t *ReportTool) Description() string {
	return "Write a security analysis report for a user."
}

func (t *ReportTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	bound, err := bindArgs([]string{"user_id", "analysis"}, 2, args, kwargs)
	if err != nil {
		return "", err
	}
	userID, err := textArg(bound, "user_id")
	if err != nil {
		return "", err
	}
	analysis, err := textArg(bound, "analysis")
	if err != nil {
		return "", err
	}

	if !t.users.UserExists(ctx, userID) {
		return fmt.Sprintf("Cannot generate report: User %s has no audit events.", userID), nil
	}

	ts := t.now()
	reportID := artifactID("REPORT", ts)

	record := map[string]any{
		"report_id":    reportID,
		"user_id":      userID,
		"analysis":     analysis,
		"timestamp":    ts.Format(time.RFC3339),
		"generated_by": actorName,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "Failed to generate report: " + err.Error(), nil
	}
	if err := writeArtifact(t.dir, reportID+".json", data); err != nil {
		return "Failed to generate report: " + err.Error(), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SECURITY ANALYSIS REPORT\n%s\n\n", strings.Repeat("=", divider))
	fmt.Fprintf(&b, "Report ID: %s\nUser ID: %s\nGenerated: %s\n\n", reportID, userID, ts.Format(time.RFC3339))
	fmt.Fprintf(&b, "ANALYSIS:\n%s\n%s\n", strings.Repeat("-", divider), analysis)
	if err := writeArtifact(t.dir, reportID+".txt", []byte(b.String())); err != nil {
		return "Failed to generate report: " + err.Error(), nil
	}

	return "Report generated: " + reportID, nil
}

// ReviewTool queues a case for a human analyst.
type ReviewTool struct {
	users UserIndex
	dir   string
	now   func() time.Time
}

func NewReviewTool(users UserIndex, dir string) *ReviewTool {
	return &ReviewTool{users: users, dir: dir, now: time.Now}
}

func (t *ReviewTool) Name() string { return "request_manual_review" }

func (t *ReviewTool) Description() string {
	return "Escalate a user to a human analyst. Urgency is LOW, MEDIUM, or HIGH."
}

func (t *ReviewTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	bound, err := bindArgs([]string{"user_id", "urgency", "reason"}, 3, args, kwargs)
	if err != nil {
		return "", err
	}
	userID, err := textArg(bound, "user_id")
	if err != nil {
		return "", err
	}
	urgency, err := textArg(bound, "urgency")
	if err != nil {
		return "", err
	}
	reason, err := textArg(bound, "reason")
	if err != nil {
		return "", err
	}

	if !t.users.UserExists(ctx, userID) {
		return fmt.Sprintf("Cannot request review: User %s has no audit events.", userID), nil
	}

	ts := t.now()
	requestID := artifactID("REVIEW", ts)

	record := map[string]any{
		"request_id":   requestID,
		"user_id":      userID,
		"urgency":      urgency,
		"reason":       reason,
		"requested_at": ts.Format(time.RFC3339),
		"requested_by": actorName,
		"status":       "PENDING",
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "Failed to request review: " + err.Error(), nil
	}
	if err := writeArtifact(t.dir, requestID+".json", data); err != nil {
		return "Failed to request review: " + err.Error(), nil
	}

	return fmt.Sprintf("Manual review requested: %s (urgency: %s)", requestID, urgency), nil
}

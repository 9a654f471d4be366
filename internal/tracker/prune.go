package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/parttrack/internal/event"
)

// PlanTTL is how long a prune plan stays executable after PlanPrune.
const PlanTTL = 15 * time.Minute

// PrunePlan lists the rows a prune would remove. Execute it with its Token.
type PrunePlan struct {
	Token     string                  `json:"token"`
	CreatedAt time.Time               `json:"created_at"`
	Rows      []event.ConnectionEvent `json:"rows"`
	Parts     []string                `json:"parts"`
}

// Count returns the number of rows the plan removes.
func (p PrunePlan) Count() int {
	return len(p.Rows)
}

// PlanPrune finds superseded duplicate rows without touching them and
// registers a plan that ExecutePrune can confirm by token.
func (s *Service) PlanPrune(ctx context.Context) (PrunePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.store.FindSupersededDuplicates(ctx)
	if err != nil {
		return PrunePlan{}, storageError("find superseded duplicates", err)
	}

	seen := make(map[string]bool)
	partList := []string{}
	for _, r := range rows {
		if !seen[r.PartNumber] {
			seen[r.PartNumber] = true
			partList = append(partList, r.PartNumber)
		}
	}

	now := s.now().UTC()
	s.expirePlans(now)

	plan := PrunePlan{
		Token:     uuid.NewString(),
		CreatedAt: now,
		Rows:      rows,
		Parts:     partList,
	}
	s.plans[plan.Token] = plan

	s.logger.Info("prune planned",
		zap.String("token", plan.Token),
		zap.Int("rows", plan.Count()),
	)
	return plan, nil
}

// ExecutePrune removes the rows of the plan registered under token. The
// deletion aborts with a conflict if the candidate rows changed since the
// plan was made. Every removed row and a summary are written to the audit
// log together with reason.
func (s *Service) ExecutePrune(ctx context.Context, token, reason string) (event.DeletionReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return event.DeletionReport{}, validationError(CodeMissingReason, "", "a reason is required to prune")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expirePlans(s.now().UTC())
	plan, ok := s.plans[token]
	if !ok {
		return event.DeletionReport{}, &Error{
			Kind:    KindNotFound,
			Code:    CodePlanNotFound,
			Message: fmt.Sprintf("no pending prune plan %q (plans expire after %s)", token, PlanTTL),
		}
	}
	delete(s.plans, token)

	confirm := func(victims []event.ConnectionEvent) error {
		if !sameRows(plan.Rows, victims) {
			return &Error{
				Kind:    KindConflict,
				Code:    CodePlanStale,
				Message: "the connection log changed since the prune was planned",
			}
		}
		return nil
	}

	report, err := s.store.DeleteSupersededDuplicates(ctx, confirm)
	if err != nil {
		if KindOf(err) != "" {
			return event.DeletionReport{}, err
		}
		return event.DeletionReport{}, storageError("delete superseded duplicates", err)
	}

	s.writeAudit(token, reason, report)
	s.logger.Info("prune executed",
		zap.String("token", token),
		zap.Int("removed", report.Count()),
	)
	return report, nil
}

// expirePlans drops plans older than PlanTTL. Callers hold s.mu.
func (s *Service) expirePlans(now time.Time) {
	for token, plan := range s.plans {
		if !now.Before(plan.CreatedAt.Add(PlanTTL)) {
			delete(s.plans, token)
		}
	}
}

func (s *Service) writeAudit(token, reason string, report event.DeletionReport) {
	for _, row := range report.Removed {
		fields := []zap.Field{
			zap.String("audit_id", uuid.NewString()),
			zap.String("token", token),
			zap.String("reason", reason),
			zap.Int64("id", row.ID),
			zap.String("part_number", row.PartNumber),
			zap.String("part_type", row.PartType),
			zap.Time("scan_time", row.ScanTime),
			zap.String("connection_status", string(row.Status)),
		}
		if row.ConnectedTo != "" {
			fields = append(fields, zap.String("connected_to", row.ConnectedTo))
		}
		s.audit.Info("superseded row removed", fields...)
	}
	s.audit.Info("prune complete",
		zap.String("audit_id", uuid.NewString()),
		zap.String("token", token),
		zap.String("reason", reason),
		zap.Int("removed", report.Count()),
		zap.Strings("parts", report.Parts),
	)
}

func sameRows(a, b []event.ConnectionEvent) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[int64]bool, len(a))
	for _, r := range a {
		ids[r.ID] = true
	}
	for _, r := range b {
		if !ids[r.ID] {
			return false
		}
	}
	return true
}

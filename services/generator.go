package services

import (
	"context"
	"fleet-backend/models"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

type RuleStore interface {
	ListAutomaticActivities(ctx context.Context, orgID *uuid.UUID) ([]models.AutomaticActivity, error)
}

// Notifier is told about every run that created at least one activity.
type Notifier interface {
	NotifyRun(ctx context.Context, summary *RunSummary)
}

type RunOptions struct {
	OrganizationID *uuid.UUID // nil means every organization
	Force          bool       // ignore the daily run lock
}

// RuleOutcome is the result of one rule that fired in a run.
type RuleOutcome struct {
	RuleID         uuid.UUID `json:"rule_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ActivityType   string    `json:"activity_type"`
	Targets        int       `json:"targets"`
	Created        int       `json:"created"`
	Duplicates     int       `json:"duplicates"`
	Errors         []string  `json:"errors,omitempty"`
}

type RunSummary struct {
	Date              string        `json:"date"`
	Skipped           bool          `json:"skipped"`
	RulesEvaluated    int           `json:"rules_evaluated"`
	RulesFired        int           `json:"rules_fired"`
	ActivitiesCreated int           `json:"activities_created"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	Failures          int           `json:"failures"`
	Outcomes          []RuleOutcome `json:"outcomes"`
}

// Generator turns automatic activity rules into dated activities. A run is a
// single serial pass over the rules; a failing rule is logged and skipped.
type Generator struct {
	rules        RuleStore
	resolver     *TargetResolver
	materializer *Materializer
	lock         RunLock
	notifier     Notifier
	loc          *time.Location
	now          func() time.Time
}

type GeneratorOption func(*Generator)

func WithRunLock(lock RunLock) GeneratorOption {
	return func(g *Generator) { g.lock = lock }
}

func WithNotifier(n Notifier) GeneratorOption {
	return func(g *Generator) { g.notifier = n }
}

func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) { g.loc = loc }
}

func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(rules RuleStore, resolver *TargetResolver, materializer *Materializer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		rules:        rules,
		resolver:     resolver,
		materializer: materializer,
		loc:          time.UTC,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Today is the current calendar date in the generator's location.
func (g *Generator) Today() time.Time {
	return g.now().In(g.loc)
}

// Run loads the rules and materializes today's activities. Only a failure to
// load the rules is returned as an error.
func (g *Generator) Run(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	started := time.Now()
	today := g.Today()
	summary := &RunSummary{
		Date:     today.Format(models.DateLayout),
		Outcomes: []RuleOutcome{},
	}

	lockKey := runLockKey(opts.OrganizationID, summary.Date)
	locked := false
	if g.lock != nil {
		acquired, err := g.lock.Acquire(ctx, lockKey)
		locked = err == nil
		switch {
		case err != nil:
			log.Printf("⚠️  Run lock unavailable, continuing without it: %v", err)
		case !acquired && !opts.Force:
			log.Printf("⚠️  Automatic activities already generated for %s, skipping", summary.Date)
			summary.Skipped = true
			recordRun("skipped", started)
			return summary, nil
		}
	}

	rules, err := g.rules.ListAutomaticActivities(ctx, opts.OrganizationID)
	if err != nil {
		if locked {
			g.releaseLock(ctx, lockKey)
		}
		recordRun("failed", started)
		return nil, fmt.Errorf("load automatic activities: %w", err)
	}

	for i := range rules {
		rule := &rules[i]
		summary.RulesEvaluated++
		if !ShouldFireToday(rule, today) {
			continue
		}
		summary.RulesFired++

		outcome := g.runRule(ctx, rule, today)
		summary.ActivitiesCreated += outcome.Created
		summary.DuplicatesSkipped += outcome.Duplicates
		summary.Failures += len(outcome.Errors)
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	log.Printf("✅ Automatic activities for %s: %d rules, %d fired, %d created, %d duplicates, %d failures",
		summary.Date, summary.RulesEvaluated, summary.RulesFired,
		summary.ActivitiesCreated, summary.DuplicatesSkipped, summary.Failures)

	// A run with failures must stay retryable the same day; the generation
	// key keeps the retry from duplicating what did succeed.
	if locked && summary.Failures > 0 {
		g.releaseLock(ctx, lockKey)
	}

	recordActivities(summary)
	recordRun("completed", started)

	if g.notifier != nil && summary.ActivitiesCreated > 0 {
		g.notifier.NotifyRun(ctx, summary)
	}
	return summary, nil
}

func (g *Generator) runRule(ctx context.Context, rule *models.AutomaticActivity, today time.Time) RuleOutcome {
	outcome := RuleOutcome{
		RuleID:         rule.ID,
		OrganizationID: rule.OrganizationID,
		ActivityType:   rule.ActivityType,
	}

	targets, err := g.resolver.Resolve(ctx, rule)
	if err != nil {
		log.Printf("❌ Automatic activity %s: resolve targets: %v", rule.ID, err)
		outcome.Errors = append(outcome.Errors, err.Error())
		return outcome
	}
	outcome.Targets = len(targets)

	for _, target := range targets {
		_, created, err := g.materializer.Materialize(ctx, rule, target, today)
		if err != nil {
			log.Printf("❌ Automatic activity %s: target %s: %v", rule.ID, target.Key(), err)
			outcome.Errors = append(outcome.Errors, err.Error())
			continue
		}
		if created {
			outcome.Created++
		} else {
			outcome.Duplicates++
		}
	}
	return outcome
}

func (g *Generator) releaseLock(ctx context.Context, key string) {
	if err := g.lock.Release(ctx, key); err != nil {
		log.Printf("⚠️  Failed to release run lock %s: %v", key, err)
	}
}

func runLockKey(orgID *uuid.UUID, date string) string {
	scope := "all"
	if orgID != nil {
		scope = orgID.String()
	}
	return fmt.Sprintf("automatic-activities:run:%s:%s", scope, date)
}

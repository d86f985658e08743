// Package service runs the sync jobs: fetch from Lingxing, land the raw
// records, merge them into the normalized tables and record the run.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lxsync/internal/metrics"
	"lxsync/internal/model"
	"lxsync/internal/repository"
	"lxsync/pkg/syncerr"
	"lxsync/pkg/uid"

	"github.com/rs/zerolog"
)

// Job names written to ingestion_runs.job_name.
const (
	JobSyncStores    = "sync_stores_from_lingxing"
	JobSyncInventory = "sync_inventory_from_lingxing"
)

// APIClient is the part of the Lingxing client a run needs.
type APIClient interface {
	GenerateAccessToken(ctx context.Context, forceRefresh bool) (string, error)
	FetchShops(ctx context.Context, token string, pageSize int) (*model.Envelope, error)
	FetchInventory(ctx context.Context, token string, length int, filters map[string]any) ([]map[string]any, error)
}

// SchemaEnsurer creates the tables a run writes to. *repository.DB implements it.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Options tune a single run.
type Options struct {
	SourceSystem string
	Platform     string
	ForceRefresh bool
	ChunkSize    int

	// PageSize is the shop listing page size.
	PageSize int
	// Length is the inventory page size; Filters are merged into its body.
	Length  int
	Filters map[string]any
}

// Runner wires the API client to the repositories.
type Runner struct {
	API       APIClient
	Schema    SchemaEnsurer
	Audit     repository.AuditRepository
	Stores    repository.StoreRepository
	Inventory repository.InventoryRepository
	Runs      repository.RunRepository
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger

	// PushURL is the Pushgateway the run's metrics go to; empty disables it.
	PushURL string
	// PushJob groups pushed metrics; the run's job name when empty.
	PushJob string

	now func() time.Time
}

// RunReport is what a run did. Run is the row written to ingestion_runs.
type RunReport struct {
	Run      model.IngestionRun
	Fetched  int64
	Audited  int64
	Affected int64
	Skipped  int64
	Errors   []error

	countsLabel string
	failures    []string
}

// Failed reports whether any stage failed.
func (r *RunReport) Failed() bool {
	return len(r.Errors) > 0
}

// Err joins the stage errors, or returns nil.
func (r *RunReport) Err() error {
	return errors.Join(r.Errors...)
}

func (r *RunReport) fail(stage string, err error) {
	r.Errors = append(r.Errors, fmt.Errorf("%s: %w", stage, err))
	r.failures = append(r.failures, fmt.Sprintf("error: %s: %s", stage, err))
}

// Note renders the run note: failures first, then the counts reached.
func (r *RunReport) Note() string {
	counts := fmt.Sprintf("%s=%d; audited=%d; affected=%d; skipped=%d",
		r.countsLabel, r.Fetched, r.Audited, r.Affected, r.Skipped)
	if len(r.failures) == 0 {
		return counts
	}
	return strings.Join(r.failures, "; ") + "; " + counts
}

// SyncStores fetches every Amazon shop, lands each one in original_data and
// merges them into stores.
func (r *Runner) SyncStores(ctx context.Context, opts Options) *RunReport {
	report, log := r.begin(JobSyncStores, "shops")
	defer r.finish(ctx, report, log)

	token, ok := r.prepare(ctx, report, opts)
	if !ok {
		return report
	}

	env, err := r.API.FetchShops(ctx, token, opts.PageSize)
	if err != nil {
		report.fail("fetch", err)
		return report
	}
	report.Fetched = int64(len(env.Data))
	log.Info().Int64("shops", report.Fetched).Msg("shops fetched")

	r.audit(ctx, report, log, opts, repository.KindStore, env)

	res, err := r.Stores.Upsert(ctx, env.Data, opts.SourceSystem, opts.Platform, opts.ChunkSize)
	report.Skipped = res.Skipped
	if err != nil {
		report.fail("upsert", err)
		return report
	}
	report.Affected = res.Affected
	r.Metrics.ObserveUpsert("stores", res.Affected, res.Skipped)
	log.Info().Int64("affected", res.Affected).Int64("skipped", res.Skipped).Msg("stores upserted")
	return report
}

// SyncInventory fetches the FBA inventory detail, lands each row in
// original_data and merges them into inventory_fba_current.
func (r *Runner) SyncInventory(ctx context.Context, opts Options) *RunReport {
	report, log := r.begin(JobSyncInventory, "rows")
	defer r.finish(ctx, report, log)

	token, ok := r.prepare(ctx, report, opts)
	if !ok {
		return report
	}

	rows, err := r.API.FetchInventory(ctx, token, opts.Length, opts.Filters)
	if err != nil {
		report.fail("fetch", err)
		return report
	}
	report.Fetched = int64(len(rows))
	log.Info().Int64("rows", report.Fetched).Msg("inventory fetched")

	r.audit(ctx, report, log, opts, repository.KindInventory, model.NewEnvelope(rows, r.clock(), ""))

	res, err := r.Inventory.Upsert(ctx, rows, opts.SourceSystem, opts.Platform, opts.ChunkSize)
	report.Skipped = res.Skipped
	if err != nil {
		report.fail("upsert", err)
		return report
	}
	report.Affected = res.Affected
	r.Metrics.ObserveUpsert("inventory_fba_current", res.Affected, res.Skipped)
	log.Info().Int64("affected", res.Affected).Int64("skipped", res.Skipped).Msg("inventory upserted")
	return report
}

func (r *Runner) begin(job, countsLabel string) (*RunReport, zerolog.Logger) {
	report := &RunReport{
		Run: model.IngestionRun{
			RunID:     uid.New(),
			JobName:   job,
			StartedAt: r.clock(),
		},
		countsLabel: countsLabel,
	}
	log := r.Logger.With().Str("component", "service").Str("job", job).Str("run_id", report.Run.RunID).Logger()
	log.Info().Msg("run started")
	return report, log
}

// prepare creates the schema and obtains a token.
func (r *Runner) prepare(ctx context.Context, report *RunReport, opts Options) (string, bool) {
	if r.Schema != nil {
		if err := r.Schema.EnsureSchema(ctx); err != nil {
			report.fail("schema", err)
			return "", false
		}
	}
	token, err := r.API.GenerateAccessToken(ctx, opts.ForceRefresh)
	if err != nil {
		report.fail("token", err)
		return "", false
	}
	return token, true
}

// audit failures are recorded but do not stop the normalized upsert.
func (r *Runner) audit(ctx context.Context, report *RunReport, log zerolog.Logger, opts Options, kind string, env *model.Envelope) {
	res, err := r.Audit.InsertEnvelope(ctx, opts.SourceSystem, kind, env)
	if err != nil {
		report.fail("audit", err)
		log.Error().Err(err).Msg("audit insert failed, continuing with upsert")
		return
	}
	report.Audited = res.Written
}

// finish writes the run row whatever happened before it, then pushes metrics.
func (r *Runner) finish(ctx context.Context, report *RunReport, log zerolog.Logger) {
	run := &report.Run
	run.EndedAt = r.clock()
	run.SuccessCount = report.Affected
	if report.Failed() {
		run.FailCount = int64(len(report.Errors))
	}
	run.Note = report.Note()

	// The run row is written even when ctx was cancelled mid-run.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := r.Runs.EnsureTable(writeCtx); err != nil {
		log.Warn().Err(err).Msg("ensure run log table failed")
	}
	if _, err := r.Runs.Insert(writeCtx, run); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("record run: %w", err))
		log.Error().Err(err).Str("note", run.Note).Msg("failed to record run")
	}

	event := log.Info()
	if report.Failed() {
		event = log.Error().Str("kind", string(syncerr.KindOf(report.Err())))
	}
	event.Dur("elapsed", run.EndedAt.Sub(run.StartedAt)).
		Int64("success_count", run.SuccessCount).
		Int64("fail_count", run.FailCount).
		Str("note", run.Note).
		Msg("run finished")

	r.Metrics.ObserveRun(run.JobName, run.StartedAt, run.EndedAt, report.Failed())
	pushJob := r.PushJob
	if pushJob == "" {
		pushJob = run.JobName
	}
	if err := r.Metrics.Push(writeCtx, r.PushURL, pushJob); err != nil {
		log.Warn().Err(err).Msg("metrics push failed")
	}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

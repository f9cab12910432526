package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence. It is suitable
// for single-instance deployments where jobs must survive restarts.
//
// The store uses a write-ahead log (WAL) for better concurrent read
// performance and periodic passive checkpoints to bound WAL growth. SQLite
// supports a single writer, so the connection pool is pinned to one
// connection and writes are serialized through a mutex.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	maxQueueDepth      int
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.Mutex
	closeOnce          sync.Once

	// preparedStatements contains pre-compiled SQL statements for the hot paths
	insertStmt        *sql.Stmt
	getStmt           *sql.Stmt
	depthStmt         *sql.Stmt
	completeStmt      *sql.Stmt
	failStmt          *sql.Stmt
	retryStmt         *sql.Stmt
	cancelStmt        *sql.Stmt
	requestCancelStmt *sql.Stmt
	cancelClaimedStmt *sql.Stmt
	listStmt          *sql.Stmt
	cleanupStmt       *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite job store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// MaxQueueDepth bounds the QUEUED backlog; Enqueue returns
	// ErrQueueSaturated above it. Zero means unbounded.
	MaxQueueDepth int

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite job store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		maxQueueDepth:      cfg.MaxQueueDepth,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the jobs table if it doesn't exist. The CHECK
// constraints enforce the closed enumerations and the retry invariant at
// the storage boundary.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		job_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		request_params TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('QUEUED','PROCESSING','COMPLETED','FAILED','CANCELLED','EXPIRED')),
		priority TEXT NOT NULL CHECK (priority IN ('PREMIUM','STANDARD','BATCH')),
		provider TEXT,
		model TEXT,
		result_content TEXT,
		error_message TEXT,
		error_details TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 3 CHECK (max_retries BETWEEN 0 AND 10),
		cancel_requested INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER,
		completed_at INTEGER,
		next_retry_at INTEGER,
		expires_at INTEGER NOT NULL,
		processing_time_ms INTEGER,
		tokens_used INTEGER,
		generation_cost REAL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		CHECK (retry_count >= 0 AND retry_count <= max_retries)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs(status, priority, created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_expires ON jobs(expires_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const jobColumns = `job_id, user_id, request_params, status, priority, provider, model,
	result_content, error_message, error_details, retry_count, max_retries,
	cancel_requested, started_at, completed_at, next_retry_at, expires_at,
	processing_time_ms, tokens_used, generation_cost, created_at, updated_at`

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO jobs (job_id, user_id, request_params, status, priority, model,
			retry_count, max_retries, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`SELECT ` + jobColumns + ` FROM jobs WHERE job_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.depthStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM jobs WHERE status = 'QUEUED'`)
	if err != nil {
		return fmt.Errorf("failed to prepare depth statement: %w", err)
	}

	// error_message/error_details may hold the failure of an earlier
	// attempt; a completed job carries its result and nothing else.
	s.completeStmt, err = s.db.Prepare(`
		UPDATE jobs SET status = 'COMPLETED', provider = ?, model = ?, result_content = ?,
			tokens_used = ?, generation_cost = ?, processing_time_ms = ?,
			error_message = NULL, error_details = NULL,
			completed_at = ?, updated_at = ?
		WHERE job_id = ? AND status = 'PROCESSING'
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare complete statement: %w", err)
	}

	s.failStmt, err = s.db.Prepare(`
		UPDATE jobs SET status = 'FAILED', provider = ?, error_message = ?, error_details = ?,
			completed_at = ?, updated_at = ?
		WHERE job_id = ? AND status = 'PROCESSING'
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare fail statement: %w", err)
	}

	s.retryStmt, err = s.db.Prepare(`
		UPDATE jobs SET status = 'QUEUED', retry_count = retry_count + 1,
			next_retry_at = ?, error_message = ?, error_details = ?, updated_at = ?
		WHERE job_id = ? AND status = 'PROCESSING' AND retry_count < max_retries
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare retry statement: %w", err)
	}

	s.cancelStmt, err = s.db.Prepare(`
		UPDATE jobs SET status = 'CANCELLED', completed_at = ?, updated_at = ?
		WHERE job_id = ? AND status = 'QUEUED'
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cancel statement: %w", err)
	}

	s.requestCancelStmt, err = s.db.Prepare(`
		UPDATE jobs SET cancel_requested = 1, updated_at = ?
		WHERE job_id = ? AND status = 'PROCESSING'
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare request-cancel statement: %w", err)
	}

	s.cancelClaimedStmt, err = s.db.Prepare(`
		UPDATE jobs SET status = 'CANCELLED', completed_at = ?, updated_at = ?
		WHERE job_id = ? AND status = 'PROCESSING'
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cancel-claimed statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT ` + jobColumns + ` FROM jobs
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM jobs
		WHERE status IN ('COMPLETED','FAILED','CANCELLED','EXPIRED') AND completed_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Enqueue admits a new QUEUED job.
func (s *SQLiteStore) Enqueue(ctx context.Context, job *GenerationJob) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if job.Status != StatusQueued {
		return &TransitionError{JobID: job.ID, From: job.Status, To: StatusQueued}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxQueueDepth > 0 {
		var depth int
		if err := s.depthStmt.QueryRowContext(ctx).Scan(&depth); err != nil {
			return fmt.Errorf("failed to check queue depth: %w", err)
		}
		if depth >= s.maxQueueDepth {
			return fmt.Errorf("queued backlog at %d: %w", depth, ErrQueueSaturated)
		}
	}

	_, err := s.insertStmt.ExecContext(ctx,
		job.ID,
		job.UserID,
		job.RequestParams,
		string(job.Status),
		string(job.Priority),
		nullString(job.Model),
		job.RetryCount,
		job.MaxRetries,
		job.ExpiresAt.UnixMilli(),
		job.CreatedAt.UnixMilli(),
		job.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job %s: %w", job.ID, ErrDuplicateJob)
		}
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// Get returns the job by id.
func (s *SQLiteStore) Get(ctx context.Context, jobID string) (*GenerationJob, error) {
	row := s.getStmt.QueryRowContext(ctx, jobID)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Claim atomically selects the best eligible job and flips it to PROCESSING.
// The select-then-update pair runs inside a transaction under the store
// mutex, so two workers cannot claim the same row.
func (s *SQLiteStore) Claim(ctx context.Context) (*GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE status = 'QUEUED'
			AND expires_at > ?
			AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY CASE priority WHEN 'PREMIUM' THEN 0 WHEN 'STANDARD' THEN 1 ELSE 2 END,
			created_at ASC
		LIMIT 1
	`, nowMs, nowMs)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoEligibleJobs
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select claim candidate: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = 'PROCESSING', started_at = ?, updated_at = ?
		WHERE job_id = ? AND status = 'QUEUED'
	`, nowMs, nowMs, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check claim: %w", err)
	}
	if affected != 1 {
		return nil, ErrNoEligibleJobs
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	job.Status = StatusProcessing
	job.StartedAt = now
	job.UpdatedAt = now
	return job, nil
}

// Complete moves a PROCESSING job to COMPLETED with its result.
func (s *SQLiteStore) Complete(ctx context.Context, jobID string, result CompletionResult) error {
	now := time.Now().UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conditionalUpdate(ctx, jobID, StatusCompleted, s.completeStmt,
		nullString(result.Provider),
		nullString(result.Model),
		result.Content,
		result.TokensUsed,
		result.Cost,
		result.ProcessingTime.Milliseconds(),
		now,
		now,
		jobID,
	)
}

// Fail moves a PROCESSING job to terminal FAILED.
func (s *SQLiteStore) Fail(ctx context.Context, jobID string, failure FailureRecord) error {
	now := time.Now().UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conditionalUpdate(ctx, jobID, StatusFailed, s.failStmt,
		nullString(failure.Provider),
		failure.Message,
		failure.Details,
		now,
		now,
		jobID,
	)
}

// ScheduleRetry moves a PROCESSING job back to QUEUED with retry bookkeeping.
func (s *SQLiteStore) ScheduleRetry(ctx context.Context, jobID string, nextRetryAt time.Time, failure FailureRecord) error {
	now := time.Now().UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conditionalUpdate(ctx, jobID, StatusQueued, s.retryStmt,
		nextRetryAt.UnixMilli(),
		failure.Message,
		failure.Details,
		now,
		jobID,
	)
}

// Cancel moves a QUEUED job to CANCELLED.
func (s *SQLiteStore) Cancel(ctx context.Context, jobID string) error {
	now := time.Now().UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conditionalUpdate(ctx, jobID, StatusCancelled, s.cancelStmt, now, now, jobID)
}

// RequestCancel marks a PROCESSING job for cooperative cancellation.
func (s *SQLiteStore) RequestCancel(ctx context.Context, jobID string) error {
	now := time.Now().UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conditionalUpdate(ctx, jobID, StatusProcessing, s.requestCancelStmt, now, jobID)
}

// CancelClaimed moves a PROCESSING job to CANCELLED.
func (s *SQLiteStore) CancelClaimed(ctx context.Context, jobID string) error {
	now := time.Now().UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conditionalUpdate(ctx, jobID, StatusCancelled, s.cancelClaimedStmt, now, now, jobID)
}

// conditionalUpdate runs a guarded transition statement and translates a
// zero-row result into ErrJobNotFound or a TransitionError. Caller holds the
// store mutex.
func (s *SQLiteStore) conditionalUpdate(ctx context.Context, jobID string, to Status, stmt *sql.Stmt, args ...interface{}) error {
	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Precondition failed: distinguish missing from invalid state.
	row := s.getStmt.QueryRowContext(ctx, jobID)
	job, scanErr := scanJob(row)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}
	if scanErr != nil {
		return fmt.Errorf("failed to inspect job after rejected update: %w", scanErr)
	}

	return &TransitionError{JobID: jobID, From: job.Status, To: to}
}

// MarkExpired moves QUEUED jobs past their expiry to EXPIRED and returns
// their ids. The select-then-update pair runs inside a transaction under
// the store mutex, mirroring Claim.
func (s *SQLiteStore) MarkExpired(ctx context.Context, now time.Time) ([]string, error) {
	nowMs := now.UTC().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin expiry transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT job_id FROM jobs WHERE status = 'QUEUED' AND expires_at <= ?
	`, nowMs)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired jobs: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired job id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read expired jobs: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE jobs SET status = 'EXPIRED', completed_at = ?, updated_at = ?
		WHERE status = 'QUEUED' AND expires_at <= ?
	`, nowMs, nowMs, nowMs)
	if err != nil {
		return nil, fmt.Errorf("failed to mark expired jobs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expiry sweep: %w", err)
	}

	return ids, nil
}

// ListByUser returns the user's jobs, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*GenerationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.listStmt.QueryContext(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// CountByStatus returns job counts grouped by status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

// CountByPriority returns job counts grouped by priority.
func (s *SQLiteStore) CountByPriority(ctx context.Context) (map[Priority]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT priority, COUNT(*) FROM jobs GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by priority: %w", err)
	}
	defer rows.Close()

	counts := make(map[Priority]int64)
	for rows.Next() {
		var priority string
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[Priority(priority)] = count
	}
	return counts, rows.Err()
}

// QueuedDepth returns the number of QUEUED jobs per priority.
func (s *SQLiteStore) QueuedDepth(ctx context.Context) (map[Priority]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT priority, COUNT(*) FROM jobs WHERE status = 'QUEUED' GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("failed to count queued depth: %w", err)
	}
	defer rows.Close()

	counts := make(map[Priority]int64)
	for rows.Next() {
		var priority string
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan depth row: %w", err)
		}
		counts[Priority(priority)] = count
	}
	return counts, rows.Err()
}

// Cleanup deletes terminal jobs completed before the cutoff.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.cleanupStmt.ExecContext(ctx, olderThan.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup jobs: %w", err)
	}

	return result.RowsAffected()
}

// Close releases the store's resources. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		stmts := []*sql.Stmt{
			s.insertStmt, s.getStmt, s.depthStmt, s.completeStmt, s.failStmt,
			s.retryStmt, s.cancelStmt, s.requestCancelStmt, s.cancelClaimedStmt,
			s.listStmt, s.cleanupStmt,
		}
		for _, stmt := range stmts {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// scanner abstracts *sql.Row and *sql.Rows for scanJob.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanJob reads a full job row.
func scanJob(row scanner) (*GenerationJob, error) {
	var (
		job              GenerationJob
		status, priority string
		provider         sql.NullString
		model            sql.NullString
		resultContent    sql.NullString
		errorMessage     sql.NullString
		errorDetails     sql.NullString
		cancelRequested  int
		startedAt        sql.NullInt64
		completedAt      sql.NullInt64
		nextRetryAt      sql.NullInt64
		expiresAt        int64
		processingTimeMs sql.NullInt64
		tokensUsed       sql.NullInt64
		generationCost   sql.NullFloat64
		createdAt        int64
		updatedAt        int64
	)

	err := row.Scan(
		&job.ID, &job.UserID, &job.RequestParams, &status, &priority,
		&provider, &model, &resultContent, &errorMessage, &errorDetails,
		&job.RetryCount, &job.MaxRetries, &cancelRequested,
		&startedAt, &completedAt, &nextRetryAt, &expiresAt,
		&processingTimeMs, &tokensUsed, &generationCost,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = Status(status)
	job.Priority = Priority(priority)
	job.Provider = provider.String
	job.Model = model.String
	job.ResultContent = resultContent.String
	job.ErrorMessage = errorMessage.String
	job.ErrorDetails = errorDetails.String
	job.CancelRequested = cancelRequested != 0
	job.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	job.CreatedAt = time.UnixMilli(createdAt).UTC()
	job.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	if startedAt.Valid {
		job.StartedAt = time.UnixMilli(startedAt.Int64).UTC()
	}
	if completedAt.Valid {
		job.CompletedAt = time.UnixMilli(completedAt.Int64).UTC()
	}
	if nextRetryAt.Valid {
		job.NextRetryAt = time.UnixMilli(nextRetryAt.Int64).UTC()
	}
	if processingTimeMs.Valid {
		job.ProcessingTimeMs = processingTimeMs.Int64
	}
	if tokensUsed.Valid {
		job.TokensUsed = int(tokensUsed.Int64)
	}
	if generationCost.Valid {
		job.GenerationCost = generationCost.Float64
	}

	return &job, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether the error is a primary key collision.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_PRIMARYKEY in the
	// error text; there is no exported sentinel to match against.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package provenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"sentra-hq/warden/pkg/audit"
	"sentra-hq/warden/pkg/telemetry/metrics"
)

// BatcherConfig contains configuration for the provenance batcher.
type BatcherConfig struct {
	// MaxBatchSize triggers an immediate batch once this many unbatched
	// entries have accumulated.
	// Default: 64
	MaxBatchSize int

	// Schedule is a cron expression for time-triggered batching, so sparse
	// traffic still gets anchored.
	// Default: "@every 5m"
	Schedule string

	// SubmitTimeout bounds the anchor submission per batch.
	// Default: 30 seconds
	SubmitTimeout time.Duration
}

// DefaultBatcherConfig returns the default batcher configuration.
func DefaultBatcherConfig() *BatcherConfig {
	return &BatcherConfig{
		MaxBatchSize:  64,
		Schedule:      "@every 5m",
		SubmitTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *BatcherConfig) Validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid batch schedule %q: %w", c.Schedule, err)
		}
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 30 * time.Second
	}
	return nil
}

// Batcher cuts the audit log into contiguous, non-overlapping batches,
// computes each batch's Merkle root and submits it to the external anchor.
//
// Batches trigger on either a count threshold or a cron schedule, whichever
// fires first. Construction is serialized; two overlapping triggers collapse
// into one batch.
type Batcher struct {
	log     *audit.Log
	store   Store
	anchor  Anchor
	config  *BatcherConfig
	logger  *slog.Logger
	metrics *metrics.Collector

	cron        *cron.Cron
	trigger     chan struct{}
	done        chan struct{}
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
	lastBatched atomic.Uint64
}

// NewBatcher creates a provenance batcher, recovering the last batched
// sequence number from the store.
func NewBatcher(ctx context.Context, log *audit.Log, store Store, anchor Anchor, config *BatcherConfig, logger *slog.Logger) (*Batcher, error) {
	if log == nil || store == nil || anchor == nil {
		return nil, fmt.Errorf("batcher requires log, store and anchor")
	}
	if config == nil {
		config = DefaultBatcherConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Batcher{
		log:     log,
		store:   store,
		anchor:  anchor,
		config:  config,
		logger:  logger.With("component", "provenance.batcher"),
		cron:    cron.New(),
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	last, ok, err := store.LastBatchedSeq(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		b.lastBatched.Store(last)
	}

	b.logger.Info("provenance batcher initialized",
		"last_batched_seq", b.lastBatched.Load(),
		"max_batch_size", config.MaxBatchSize,
		"schedule", config.Schedule,
	)

	return b, nil
}

// SetMetrics attaches a metrics collector. Batch sizes and anchor
// submission outcomes are recorded once set.
func (b *Batcher) SetMetrics(collector *metrics.Collector) {
	b.metrics = collector
}

// Start begins scheduled batching and the trigger worker.
func (b *Batcher) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("batcher already running")
	}

	if b.config.Schedule != "" {
		if _, err := b.cron.AddFunc(b.config.Schedule, b.requestBatch); err != nil {
			return fmt.Errorf("schedule batch job: %w", err)
		}
		b.cron.Start()
	}

	b.wg.Add(1)
	go b.worker()
	b.running = true
	return nil
}

// Stop halts the scheduler and waits for in-flight batching to finish.
func (b *Batcher) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.mu.Unlock()

	stopCtx := b.cron.Stop()
	<-stopCtx.Done()
	close(b.done)
	b.wg.Wait()
}

// Notify tells the batcher an audit entry was appended. When the unbatched
// backlog reaches the count threshold a batch is triggered asynchronously.
func (b *Batcher) Notify(lastSeq uint64) {
	if lastSeq-b.lastBatched.Load() >= uint64(b.config.MaxBatchSize) {
		b.requestBatch()
	}
}

func (b *Batcher) requestBatch() {
	select {
	case b.trigger <- struct{}{}:
	default:
	}
}

func (b *Batcher) worker() {
	defer b.wg.Done()
	for {
		select {
		case <-b.trigger:
			ctx, cancel := context.WithTimeout(context.Background(), b.config.SubmitTimeout)
			if _, err := b.BatchNow(ctx); err != nil {
				b.logger.Error("batch construction failed", "error", err)
			}
			cancel()
		case <-b.done:
			return
		}
	}
}

// BatchNow builds and anchors a batch over every unbatched entry. It is a
// no-op returning (nil, nil) when nothing is pending; batches are never
// empty.
//
// A batch whose anchor submission fails is still persisted, unconfirmed, so
// its range is not re-batched; ResubmitPending retries the submission.
func (b *Batcher) BatchNow(ctx context.Context) (*Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fromSeq := b.lastBatched.Load() + 1
	toSeq := b.log.LastSeq()
	if fromSeq > toSeq {
		return nil, nil
	}

	entries, err := b.log.Range(ctx, fromSeq, toSeq)
	if err != nil {
		return nil, err
	}
	if uint64(len(entries)) != toSeq-fromSeq+1 {
		return nil, fmt.Errorf("audit range [%d,%d] returned %d entries", fromSeq, toSeq, len(entries))
	}

	fingerprints := make([]string, len(entries))
	for i, entry := range entries {
		fingerprints[i] = entry.Fingerprint
	}

	root, err := MerkleRoot(fingerprints)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		ID:        uuid.New().String(),
		FromSeq:   fromSeq,
		ToSeq:     toSeq,
		Root:      root,
		CreatedAt: time.Now().UTC(),
	}
	if err := b.store.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}
	b.lastBatched.Store(toSeq)
	if b.metrics != nil {
		b.metrics.RecordBatch(batch.EntryCount())
	}

	ref, err := b.anchor.Submit(ctx, batch.ID, batch.Root)
	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordAnchorSubmission("error")
		}
		b.logger.Warn("anchor submission failed, batch kept unconfirmed",
			"batch_id", batch.ID,
			"error", err,
		)
		return batch, nil
	}
	if b.metrics != nil {
		b.metrics.RecordAnchorSubmission("ok")
	}
	batch.ReceiptRef = ref

	confirmed, err := b.anchor.Confirm(ctx, ref)
	if err != nil {
		confirmed = false
	}
	batch.Confirmed = confirmed

	if err := b.store.UpdateReceipt(ctx, batch.ID, ref, confirmed); err != nil {
		return nil, err
	}

	b.logger.Info("batch anchored",
		"batch_id", batch.ID,
		"from_seq", batch.FromSeq,
		"to_seq", batch.ToSeq,
		"receipt_ref", ref,
		"confirmed", confirmed,
	)

	return batch, nil
}

// ResubmitPending retries anchor submission for unsubmitted batches and
// re-checks confirmation for submitted ones.
func (b *Batcher) ResubmitPending(ctx context.Context) error {
	pending, err := b.store.ListUnconfirmed(ctx)
	if err != nil {
		return err
	}

	for _, batch := range pending {
		ref := batch.ReceiptRef
		if ref == "" {
			ref, err = b.anchor.Submit(ctx, batch.ID, batch.Root)
			if err != nil {
				if b.metrics != nil {
					b.metrics.RecordAnchorSubmission("error")
				}
				b.logger.Warn("anchor resubmission failed",
					"batch_id", batch.ID,
					"error", err,
				)
				continue
			}
			if b.metrics != nil {
				b.metrics.RecordAnchorSubmission("ok")
			}
		}

		confirmed, err := b.anchor.Confirm(ctx, ref)
		if err != nil {
			confirmed = false
		}
		if err := b.store.UpdateReceipt(ctx, batch.ID, ref, confirmed); err != nil {
			return err
		}
	}
	return nil
}

// LastBatchedSeq returns the highest audit sequence number covered by any
// batch.
func (b *Batcher) LastBatchedSeq() uint64 {
	return b.lastBatched.Load()
}

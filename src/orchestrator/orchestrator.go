// Package orchestrator owns the explorer's presentation state. It turns
// selection and filter changes into debounced, cancellable fetch cycles and
// only ever applies the result of the most recent one.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"series-explorer/src/analysis"
	"series-explorer/src/helpers"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
	"series-explorer/src/observability"
	"series-explorer/src/query"
	"series-explorer/src/utils"
)

// Listener receives every new snapshot. It is called with the orchestrator
// lock held: it must return quickly and must not call back into the Orchestrator.
type Listener func(state models.MPresentationState)

type listenerEntry struct {
	id int
	fn Listener
}

// schedule is the token of one debounce timer. Only the current token may dispatch.
type schedule struct {
	timer *time.Timer
}

// cycle is one dispatched fetch.
type cycle struct {
	epoch     uint64
	cancel    context.CancelFunc
	selection []string
	query     models.MQueryDescriptor
	started   time.Time
}

type Orchestrator struct {
	Fetcher  interfaces.ISeriesFetcher
	Debounce time.Duration
	History  *utils.RingBuffer[models.MFetchMetrics]
	Logger   *logger.Logger

	mu         sync.Mutex
	lifecycle  context.Context
	stop       context.CancelFunc
	running    sync.WaitGroup
	state      models.MPresentationState
	epoch      uint64
	pending    *schedule
	inflight   *cycle
	listeners  []listenerEntry
	listenerID int
	closed     bool
}

// -----------------------------------------------------------------------------

func New(fetcher interfaces.ISeriesFetcher, debounce time.Duration, history *utils.RingBuffer[models.MFetchMetrics], log *logger.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		Fetcher:   fetcher,
		Debounce:  debounce,
		History:   history,
		Logger:    log,
		lifecycle: ctx,
		stop:      cancel,
		state:     models.NewPresentationState(),
	}
}

// -----------------------------------------------------------------------------

// State returns the current snapshot.
func (o *Orchestrator) State() models.MPresentationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// -----------------------------------------------------------------------------

// Subscribe registers l and returns a function that removes it.
func (o *Orchestrator) Subscribe(l Listener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.listenerID++
	id := o.listenerID
	o.listeners = append(o.listeners, listenerEntry{id: id, fn: l})

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, e := range o.listeners {
			if e.id == id {
				o.listeners = append(o.listeners[:i:i], o.listeners[i+1:]...)
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Inputs
// -----------------------------------------------------------------------------

func (o *Orchestrator) Toggle(seriesID string) {
	o.update(func(s *models.MPresentationState) {
		s.Selection = models.ToggleSelection(s.Selection, seriesID)
	})
}

func (o *Orchestrator) Select(seriesIDs ...string) {
	o.update(func(s *models.MPresentationState) {
		s.Selection = models.NormalizeSelection(seriesIDs)
	})
}

func (o *Orchestrator) SetFilters(filters models.MFilters) {
	o.update(func(s *models.MPresentationState) {
		s.Filters = filters
	})
}

func (o *Orchestrator) SetStart(start string) {
	o.update(func(s *models.MPresentationState) { s.Filters.Start = start })
}

func (o *Orchestrator) SetEnd(end string) {
	o.update(func(s *models.MPresentationState) { s.Filters.End = end })
}

func (o *Orchestrator) SetFrequency(frequency string) {
	o.update(func(s *models.MPresentationState) { s.Filters.Frequency = frequency })
}

func (o *Orchestrator) SetTransform(transform string) {
	o.update(func(s *models.MPresentationState) { s.Filters.Transform = transform })
}

// Refresh fetches the current selection again with unchanged filters, which
// is how a failed load is retried. An empty selection stays cleared.
func (o *Orchestrator) Refresh() {
	o.apply(func(*models.MPresentationState) {}, true)
}

// -----------------------------------------------------------------------------

// SetCatalogue records the dataset list, or the reason it could not be
// loaded. It does not trigger a fetch.
func (o *Orchestrator) SetCatalogue(ids []string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	next := o.state
	if err != nil {
		next.CatalogueError = err.Error()
	} else {
		next.Catalogue = models.NormalizeSelection(ids)
		next.CatalogueError = ""
	}
	o.commit(next)
}

// -----------------------------------------------------------------------------

// LoadCatalogue fetches the catalogue from source and records the outcome.
func (o *Orchestrator) LoadCatalogue(ctx context.Context, source interfaces.ISeriesSource) error {
	ids, err := source.FetchCatalogue(ctx)
	o.SetCatalogue(ids, err)
	return err
}

// -----------------------------------------------------------------------------

// Close stops the debounce timer, cancels in-flight work and waits for it to finish.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.supersede()
	o.stop()
	o.mu.Unlock()

	o.running.Wait()
}

// -----------------------------------------------------------------------------
// State machine
// -----------------------------------------------------------------------------

func (o *Orchestrator) update(mutate func(s *models.MPresentationState)) {
	o.apply(mutate, false)
}

// apply runs mutate on a copy of the state. Unless force is set, a change
// that leaves the request untouched is committed without a fetch.
func (o *Orchestrator) apply(mutate func(s *models.MPresentationState), force bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	next := o.state
	mutate(&next)
	next.Query = query.Build(next.Filters)

	if !force && models.SameSelection(next.Selection, o.state.Selection) && next.Query == o.state.Query {
		// nothing that affects the request changed
		if next.Filters != o.state.Filters {
			o.commit(next)
		}
		return
	}

	o.supersede()
	observability.SelectedSeries.Set(float64(len(next.Selection)))

	if len(next.Selection) == 0 {
		next.Table = models.NewAlignedTable()
		next.Loading = false
		next.Error = ""
		next.Phase = models.PhaseSettled
		o.commit(next)
		o.record(o.epoch, models.OutcomeCleared, time.Time{}, next.Table)
		return
	}

	next.Phase = models.PhaseScheduled
	o.commit(next)
	o.pending = o.schedule()
}

// -----------------------------------------------------------------------------

// supersede drops the pending timer and cancels the in-flight cycle. Must hold o.mu.
func (o *Orchestrator) supersede() {
	if o.pending != nil {
		o.pending.timer.Stop()
		o.pending = nil
	}
	if c := o.inflight; c != nil {
		c.cancel()
		o.inflight = nil
		o.Logger.Debug("Cancelled fetch for epoch %d", c.epoch)
		o.record(c.epoch, models.OutcomeCancelled, c.started, models.MAlignedTable{})
	}
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) schedule() *schedule {
	s := &schedule{}
	s.timer = time.AfterFunc(o.Debounce, func() { o.dispatch(s) })
	return s
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) dispatch(s *schedule) {
	o.mu.Lock()
	if o.closed || o.pending != s {
		o.mu.Unlock()
		return
	}
	o.pending = nil

	o.epoch++
	ctx, cancel := context.WithCancel(o.lifecycle)
	c := &cycle{
		epoch:     o.epoch,
		cancel:    cancel,
		selection: o.state.Selection,
		query:     o.state.Query,
		started:   time.Now(),
	}
	o.inflight = c

	next := o.state
	next.Loading = true
	next.Error = ""
	next.Epoch = o.epoch
	next.Phase = models.PhaseInFlight
	o.commit(next)

	observability.CurrentEpoch.Set(float64(o.epoch))
	o.Logger.Debug("Dispatching epoch %d for %v %+v", c.epoch, c.selection, c.query)

	o.running.Add(1)
	o.mu.Unlock()

	go o.run(ctx, c)
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) run(ctx context.Context, c *cycle) {
	defer o.running.Done()

	results, err := o.Fetcher.Fetch(ctx, c.selection, c.query)
	var table models.MAlignedTable
	if err == nil {
		table = analysis.Align(results)
	}
	o.settle(c, table, err)
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) settle(c *cycle, table models.MAlignedTable, err error) {
	defer c.cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inflight != c || c.epoch != o.epoch {
		o.Logger.Debug("Discarding result of epoch %d, current epoch is %d", c.epoch, o.epoch)
		observability.FetchCycles.WithLabelValues(models.OutcomeStale).Inc()
		return
	}
	o.inflight = nil

	if errors.Is(err, helpers.ErrCancelled) {
		// only the lifecycle context can cancel a current cycle
		return
	}

	next := o.state
	next.Loading = false
	next.Phase = models.PhaseSettled
	outcome := models.OutcomeSuccess
	if err != nil {
		outcome = models.OutcomeFailure
		next.Error = err.Error()
		next.Table = models.NewAlignedTable()
		o.Logger.Warning("Fetch for epoch %d failed: %v", c.epoch, err)
	} else {
		next.Error = ""
		next.Table = table
	}
	o.commit(next)
	o.record(c.epoch, outcome, c.started, next.Table)
}

// -----------------------------------------------------------------------------

// commit publishes next as the current snapshot. Must hold o.mu.
func (o *Orchestrator) commit(next models.MPresentationState) {
	next.UpdatedAt = time.Now().UnixMilli()
	o.state = next
	for _, l := range o.listeners {
		l.fn(next)
	}
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) record(epoch uint64, outcome string, started time.Time, table models.MAlignedTable) {
	m := models.MFetchMetrics{
		Epoch:      epoch,
		Outcome:    outcome,
		Series:     len(table.Series),
		Dates:      len(table.Dates),
		FinishedAt: time.Now().UnixMilli(),
	}
	if !started.IsZero() {
		m.DurationSeconds = time.Since(started).Seconds()
		observability.FetchCycleDuration.WithLabelValues(outcome).Observe(m.DurationSeconds)
	}
	observability.FetchCycles.WithLabelValues(outcome).Inc()
	if o.History != nil {
		o.History.Append(m)
	}
}

package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Summarizer turns a system instruction and prompt into summary text.
type Summarizer interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// HistoryRecorder persists a completed search.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, userID string, result *SearchResult) error
}

// Observer receives aggregation events, typically for metrics.
type Observer interface {
	ObserveSearch(mode string, elapsed time.Duration)
	ObserveLookup(kind string, degraded bool)
	ObserveSummary(fallback bool)
	ObserveHistoryWrite(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveSearch(string, time.Duration) {}
func (nopObserver) ObserveLookup(string, bool)          {}
func (nopObserver) ObserveSummary(bool)                 {}
func (nopObserver) ObserveHistoryWrite(error)           {}

// Options tune an Aggregator. Zero values fall back to defaults.
type Options struct {
	LookupTimeout  time.Duration
	HistoryTimeout time.Duration
	NewsEnabled    bool
	UserID         string
	Recorder       HistoryRecorder
	Observer       Observer
	Logger         *slog.Logger
}

const (
	defaultLookupTimeout  = 10 * time.Second
	defaultHistoryTimeout = 10 * time.Second
	defaultUserID         = "anonymous"
)

// Aggregator fans a query out to lookups, summarizes the merged sources and
// records the result.
type Aggregator struct {
	searchers  map[Kind]Searcher
	summarizer Summarizer
	opts       Options
	log        *slog.Logger
	now        func() time.Time
	pending    sync.WaitGroup
}

// NewAggregator creates an Aggregator. Lookups without a searcher and a nil
// summarizer degrade to placeholder content.
func NewAggregator(searchers map[Kind]Searcher, summarizer Summarizer, opts Options) *Aggregator {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaultLookupTimeout
	}
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = defaultHistoryTimeout
	}
	if opts.UserID == "" {
		opts.UserID = defaultUserID
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		searchers:  searchers,
		summarizer: summarizer,
		opts:       opts,
		log:        logger.With("component", "aggregator"),
		now:        time.Now,
	}
}

// Aggregate runs a search. Only validation failures are returned as errors;
// every other failure is folded into the result.
func (a *Aggregator) Aggregate(ctx context.Context, req SearchRequest) (result *SearchResult, err error) {
	req, err = req.Normalize()
	if err != nil {
		return nil, err
	}

	start := a.now()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("aggregation panicked", "query", req.Query, "panic", r)
			result = a.errorResult(req, fmt.Errorf("%v", r))
			err = nil
		}
		a.opts.Observer.ObserveSearch(string(req.Mode), a.now().Sub(start))
	}()

	// Work started for a request runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	sources := a.collect(ctx, req)
	summary := a.summarize(ctx, req, sources)

	now := a.now().UTC()
	result = &SearchResult{
		Query:     req.Query,
		Mode:      req.Mode,
		Summary:   summary,
		Sources:   sources,
		Citations: Citations(sources, now.Format("2006-01-02")),
		Timestamp: now.Format(time.RFC3339),
	}

	a.record(result)
	return result, nil
}

// Wait blocks until detached history writes have finished.
func (a *Aggregator) Wait() {
	a.pending.Wait()
}

func (a *Aggregator) collect(ctx context.Context, req SearchRequest) []SourceItem {
	plan := PlanFor(req.Mode, a.opts.NewsEnabled)
	slots := make([][]SourceItem, len(plan))

	var wg sync.WaitGroup
	for i, k := range plan {
		wg.Add(1)
		go func(i int, k Kind) {
			defer wg.Done()
			slots[i] = a.lookup(ctx, k, req.Query)
		}(i, k)
	}
	wg.Wait()

	var merged []SourceItem
	for _, items := range slots {
		merged = append(merged, items...)
	}
	if len(merged) == 0 {
		merged = []SourceItem{GenericPlaceholder(req.Query)}
	}
	return merged
}

func (a *Aggregator) lookup(ctx context.Context, k Kind, query string) (items []SourceItem) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("lookup panicked", "kind", k.String(), "panic", r)
			a.opts.Observer.ObserveLookup(k.String(), true)
			items = []SourceItem{Placeholder(k, query)}
		}
	}()

	s := a.searchers[k]
	if s == nil {
		a.log.Debug("no searcher for lookup", "kind", k.String())
		a.opts.Observer.ObserveLookup(k.String(), true)
		return []SourceItem{Placeholder(k, query)}
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.LookupTimeout)
	defer cancel()

	hits, err := s.Search(ctx, k.Transform(query), k.Limit())
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrNotConfigured) {
			level = slog.LevelDebug
		}
		a.log.Log(ctx, level, "lookup failed, using placeholder", "kind", k.String(), "error", err)
		a.opts.Observer.ObserveLookup(k.String(), true)
		return []SourceItem{Placeholder(k, query)}
	}

	a.opts.Observer.ObserveLookup(k.String(), false)
	return toSourceItems(k, hits)
}

func (a *Aggregator) summarize(ctx context.Context, req SearchRequest, sources []SourceItem) string {
	if a.summarizer != nil {
		system, prompt := BuildPrompt(req.Mode, req.Query, sources)
		text, err := a.summarizer.Generate(ctx, system, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			a.opts.Observer.ObserveSummary(false)
			return text
		}
		a.log.Warn("summarization failed, using extractive summary", "error", err)
	}
	a.opts.Observer.ObserveSummary(true)
	return ExtractiveSummary(req.Query, sources)
}

func (a *Aggregator) record(result *SearchResult) {
	if a.opts.Recorder == nil {
		return
	}
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("history write panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), a.opts.HistoryTimeout)
		defer cancel()

		err := a.opts.Recorder.RecordSearch(ctx, a.opts.UserID, result)
		a.opts.Observer.ObserveHistoryWrite(err)
		if err != nil {
			a.log.Warn("failed to save search history", "query", result.Query, "error", err)
		}
	}()
}

func (a *Aggregator) errorResult(req SearchRequest, err error) *SearchResult {
	now := a.now().UTC()
	sources := []SourceItem{{
		Title:      req.Query + " - Search Results",
		URL:        "https://www.google.com/search?q=" + url.QueryEscape(req.Query),
		Snippet:    "An error occurred. Please try searching again.",
		DisplayURL: "google.com",
		Source:     "Error",
	}}
	return &SearchResult{
		Query:     req.Query,
		Mode:      req.Mode,
		Summary:   fmt.Sprintf("Error occurred while searching for \"%s\". Please try again.", req.Query),
		Sources:   sources,
		Citations: Citations(sources, now.Format("2006-01-02")),
		Timestamp: now.Format(time.RFC3339),
		Error:     err.Error(),
	}
}

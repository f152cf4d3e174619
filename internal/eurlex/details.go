package eurlex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
)

// Detail-page layouts vary like listing layouts do, so title and body are
// resolved through ordered selector chains as well.
var (
	detailTitleSelectors   = []string{"h1.doc-ti", "h1", ".document-title", ".title"}
	detailContentSelectors = []string{"#text", ".document-content", ".content", "main"}
)

// minContentRunes filters out pages whose matched container holds only
// navigation boilerplate instead of a document body.
const minContentRunes = 100

// detailTask is one unit of work for the detail pool: a reserved stub plus
// the provenance needed for archive names and progress events.
type detailTask struct {
	runID    string
	strategy StrategyKind
	query    string
	stub     CandidateStub
}

// runDetailPool fetches and persists the given stubs with a fixed worker
// pool. Task failures are logged and counted, never propagated; the return
// value is the number of acts actually persisted. When ctx is canceled the
// feed stops, workers drain whatever they already picked up, and the partial
// count is returned.
func (s *Scraper) runDetailPool(ctx context.Context, tasks []detailTask) int {
	if len(tasks) == 0 {
		return 0
	}

	workers := s.cfg.Workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan detailTask)
	var wg sync.WaitGroup
	var saved atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				start := time.Now()
				if err := s.processDetail(ctx, task); err != nil {
					s.observeDetailFailure(task, err, time.Since(start))
					continue
				}
				saved.Add(1)
				s.emit(progress.Event{
					RunID:    task.runID,
					Stage:    progress.StageActSaved,
					Strategy: string(task.strategy),
					Query:    task.query,
					Celex:    task.stub.Celex,
					URL:      task.stub.URL,
					Dur:      time.Since(start),
				})
			}
		}()
	}

feed:
	for _, task := range tasks {
		select {
		case jobs <- task:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return int(saved.Load())
}

// processDetail runs the full enrichment pipeline for one reserved stub:
// rate-limited fetch, optional headless promotion, raw-body archive, parse,
// metadata extraction, upsert, notification. The task keeps running after a
// run-level cancellation so in-flight work is not wasted, but never longer
// than the drain grace.
func (s *Scraper) processDetail(ctx context.Context, task detailTask) error {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DrainGrace)
	defer cancel()

	celex := task.stub.Celex
	url := s.detailURL(celex)

	if err := s.limiter.Wait(taskCtx, url); err != nil {
		return &TransportError{URL: url, Err: err}
	}

	res, err := s.fetchDetail(taskCtx, url)
	if err != nil {
		return err
	}

	s.archiveBody(taskCtx, task, res.Body)

	if len(res.Body) == 0 {
		return &ParseError{URL: url, Reason: "empty document"}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return &ParseError{URL: url, Reason: fmt.Sprintf("unreadable html: %v", err)}
	}

	act := s.buildAct(task.stub, url, doc)

	if _, err := s.sink.UpsertAct(taskCtx, act); err != nil {
		return &PersistenceError{Celex: celex, Err: err}
	}

	if s.notifier != nil {
		if err := s.notifier.Publish(taskCtx, celex); err != nil {
			s.log.Warn("act notification failed",
				zap.String("celex", celex),
				zap.Error(err))
		}
	}
	return nil
}

// fetchDetail performs the plain fetch and, when a renderer is configured
// and the body looks like a script wall, retries through the headless
// browser. A failed render falls back to the plain body rather than failing
// the task.
func (s *Scraper) fetchDetail(ctx context.Context, url string) (FetchResult, error) {
	res, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return FetchResult{}, err
	}
	if s.renderer == nil || s.detector == nil || !s.detector.ShouldPromote(res) {
		return res, nil
	}

	rendered, err := s.renderer.Render(ctx, url)
	if err != nil {
		s.log.Warn("headless render failed, keeping plain body",
			zap.String("url", url),
			zap.Error(err))
		return res, nil
	}
	return rendered, nil
}

// buildAct merges the listing stub with everything the detail page yields.
func (s *Scraper) buildAct(stub CandidateStub, url string, doc *goquery.Document) LegalAct {
	act := LegalAct{
		Celex:        stub.Celex,
		Title:        stub.Title,
		DocumentType: stub.DocumentType,
		DateDocument: stub.DateDocument,
		Summary:      stub.Summary,
		URL:          url,
	}

	if act.Title == "" {
		act.Title = firstText(doc.Selection, detailTitleSelectors)
	}

	act.Content = extractDetailContent(doc, s.cfg.ContentLimit)
	if act.Content != "" {
		hash, err := s.hasher.Hash([]byte(act.Content))
		if err != nil {
			s.log.Warn("content hash failed", zap.String("celex", act.Celex), zap.Error(err))
		} else {
			act.ContentHash = hash
		}
	}

	ExtractMetadata(doc, &act)
	return act
}

// extractDetailContent returns the first matched container whose text is
// long enough to be a document body, truncated to limit runes. The rune cap
// keeps the excerpt from splitting a multi-byte character.
func extractDetailContent(doc *goquery.Document, limit int) string {
	for _, sel := range detailContentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := cleanText(node.Text())
		runes := []rune(text)
		if len(runes) <= minContentRunes {
			continue
		}
		if limit > 0 && len(runes) > limit {
			return string(runes[:limit])
		}
		return text
	}
	return ""
}

// archiveBody stores the raw response for replay. Archive failures never
// fail the task.
func (s *Scraper) archiveBody(ctx context.Context, task detailTask, body []byte) {
	if s.archive == nil || len(body) == 0 {
		return
	}
	name := fmt.Sprintf("%s/%s.html", task.runID, task.stub.Celex)
	if err := s.archive.Save(ctx, name, body); err != nil {
		s.log.Warn("archive write failed",
			zap.String("object", name),
			zap.Error(err))
	}
}

func (s *Scraper) observeDetailFailure(task detailTask, err error, took time.Duration) {
	kind := errorKind(err)
	s.log.Warn("detail task failed",
		zap.String("celex", task.stub.Celex),
		zap.String("strategy", string(task.strategy)),
		zap.String("kind", kind),
		zap.Duration("took", took),
		zap.Error(err))
	s.emit(progress.Event{
		RunID:     task.runID,
		Stage:     progress.StageActFailed,
		Strategy:  string(task.strategy),
		Query:     task.query,
		Celex:     task.stub.Celex,
		URL:       task.stub.URL,
		ErrorKind: kind,
		Dur:       took,
	})
}

func (s *Scraper) detailURL(celex string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/legal-content/EN/TXT/?uri=CELEX:" + celex
}

func errorKind(err error) string {
	var transport *TransportError
	var parse *ParseError
	var persist *PersistenceError
	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &persist):
		return "persistence"
	default:
		return "other"
	}
}

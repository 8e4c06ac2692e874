package pubchem

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/labelscan/internal/ingredients"
	"github.com/ironsheep/labelscan/internal/metrics"
)

// DefaultWorkers bounds concurrent lookups in one batch.
const DefaultWorkers = 4

// Status is the outcome of resolving one candidate.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Result pairs a candidate with what the lookup produced.
type Result struct {
	Candidate ingredients.Candidate `json:"candidate"`
	Status    Status                `json:"status"`
	Compound  *Compound             `json:"compound,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Looker resolves a single name. *Client implements it.
type Looker interface {
	Lookup(ctx context.Context, name string) (*Compound, error)
}

// Resolver looks up a batch of candidates on a bounded pool.
type Resolver struct {
	looker  Looker
	workers int
	log     logrus.FieldLogger
}

// NewResolver returns a resolver running at most workers lookups at once.
func NewResolver(looker Looker, workers int, log logrus.FieldLogger) *Resolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Resolver{looker: looker, workers: workers, log: log}
}

// ResolveAll looks up every candidate and returns one result per candidate
// in input order. Candidates with an empty search term are marked skipped
// and never queried. A failed lookup is recorded on its own result and does
// not stop the others.
func (r *Resolver) ResolveAll(ctx context.Context, candidates []ingredients.Candidate) []Result {
	results := make([]Result, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, c := range candidates {
		results[i].Candidate = c
		if c.Skipped() {
			results[i].Status = StatusSkipped
			metrics.Lookups.WithLabelValues(string(StatusSkipped)).Inc()
			continue
		}

		i, c := i, c
		g.Go(func() error {
			results[i] = r.resolve(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Resolver) resolve(ctx context.Context, c ingredients.Candidate) Result {
	res := Result{Candidate: c}

	start := time.Now()
	compound, err := r.looker.Lookup(ctx, c.SearchTerm)
	metrics.LookupDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		res.Status = StatusFound
		res.Compound = compound
	case errors.Is(err, ErrNotFound):
		res.Status = StatusNotFound
	default:
		res.Status = StatusFailed
		res.Error = err.Error()
		r.log.WithFields(logrus.Fields{
			"term":  c.SearchTerm,
			"error": err,
		}).Warn("compound lookup failed")
	}
	metrics.Lookups.WithLabelValues(string(res.Status)).Inc()
	return res
}

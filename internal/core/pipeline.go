package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/core/normalize"
	"github.com/agenthands/boqmatch/internal/core/pogroup"
	"github.com/agenthands/boqmatch/internal/core/rank"
	"github.com/agenthands/boqmatch/internal/core/substitute"
)

// Pipeline runs the matching stages against whatever catalog snapshot the
// index holds when a call starts. A call never sees two snapshots.
type Pipeline struct {
	Index      *catalog.Index
	Normalizer *normalize.Normalizer
	Ranker     *rank.Ranker
	Suggester  *substitute.Suggester
	Grouper    *pogroup.Grouper
	Logger     *slog.Logger
	// Workers bounds the per-item fan-out of a single call.
	Workers int
}

func NewPipeline(ix *catalog.Index, cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	ranker := rank.NewRanker(cfg.Ranking)
	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		Index:      ix,
		Normalizer: normalize.NewNormalizer(cfg.Matching.Threshold, cfg.Matching.TieEpsilon),
		Ranker:     ranker,
		Suggester:  substitute.NewSuggester(ranker, cfg.Substitution),
		Grouper:    pogroup.NewGrouper(),
		Logger:     logger,
		Workers:    workers,
	}
}

type NormalizeResult struct {
	Items  []model.NormalizedItem `json:"items"`
	Errors []*model.ItemError     `json:"errors"`
}

type SuggestResult struct {
	Proposals []model.SubstitutionProposal `json:"proposals"`
	Errors    []*model.ItemError           `json:"errors"`
}

type GroupRequest struct {
	Items      []model.NormalizedItem `json:"items"`
	Selections map[string]string      `json:"selections"`
	// Proposals may hold pending, approved and rejected proposals; only
	// approved ones whose original offer is still selected are applied.
	// An approved proposal lets its item be billed from another catalog
	// entry, and nothing re-checks that the buyer really approved it: the
	// caller is trusted to send back only decisions the buyer made.
	Proposals         []model.SubstitutionProposal `json:"proposals,omitempty"`
	ExcludeOutOfStock bool                         `json:"exclude_out_of_stock,omitempty"`
}

// Normalize maps every raw line onto the catalog. Results keep the input
// order. Invalid lines and repeated line ids end up in Errors and do not
// stop the rest of the batch.
func (p *Pipeline) Normalize(ctx context.Context, raws []model.RawLineItem) (NormalizeResult, error) {
	snap, err := p.Index.Snapshot()
	if err != nil {
		return NormalizeResult{}, err
	}

	items := make([]model.NormalizedItem, len(raws))
	errs := make([]error, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		switch {
		case raw.ID == "":
			errs[i] = fmt.Errorf("%w: line %d has no id", model.ErrInvalidInput, i)
		case seen[raw.ID]:
			errs[i] = fmt.Errorf("%w: duplicate line id", model.ErrInvalidInput)
		}
		seen[raw.ID] = true
	}

	err = p.each(ctx, len(raws), func(i int) {
		if errs[i] != nil {
			return
		}
		items[i], errs[i] = p.Normalizer.Normalize(snap, raws[i])
	})
	if err != nil {
		return NormalizeResult{}, err
	}

	res := NormalizeResult{Items: []model.NormalizedItem{}, Errors: []*model.ItemError{}}
	for i := range raws {
		if errs[i] != nil {
			res.Errors = append(res.Errors, &model.ItemError{ItemID: raws[i].ID, Err: errs[i]})
			continue
		}
		res.Items = append(res.Items, items[i])
	}
	if len(res.Errors) > 0 {
		p.Logger.Debug("normalize finished with item errors", "items", len(res.Items), "errors", len(res.Errors), "catalog_version", snap.Version)
	}
	return res, nil
}

// RankVendors ranks the approved offers of every item. Unmatched items map
// to an empty ranking.
func (p *Pipeline) RankVendors(ctx context.Context, items []model.NormalizedItem) (map[string][]model.RankedOffer, error) {
	snap, err := p.Index.Snapshot()
	if err != nil {
		return nil, err
	}

	ranked := make([][]model.RankedOffer, len(items))
	err = p.each(ctx, len(items), func(i int) {
		ranked[i] = p.Ranker.Rank(snap, items[i])
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.RankedOffer, len(items))
	for i, item := range items {
		out[item.ID()] = ranked[i]
	}
	return out, nil
}

// SuggestSubstitutions proposes alternatives for every item that has a
// selection. Items without a selection are skipped. Proposals come out in
// item order, best proposal first within an item.
func (p *Pipeline) SuggestSubstitutions(ctx context.Context, items []model.NormalizedItem, selections map[string]string) (SuggestResult, error) {
	snap, err := p.Index.Snapshot()
	if err != nil {
		return SuggestResult{}, err
	}

	proposals := make([][]model.SubstitutionProposal, len(items))
	errs := make([]error, len(items))
	err = p.each(ctx, len(items), func(i int) {
		item := items[i]
		offerID, ok := selections[item.ID()]
		if !ok {
			return
		}
		if !item.Matched() {
			errs[i] = fmt.Errorf("%w: item has no catalog match", model.ErrInvalidInput)
			return
		}
		proposals[i], errs[i] = p.Suggester.Suggest(snap, item, offerID)
	})
	if err != nil {
		return SuggestResult{}, err
	}

	res := SuggestResult{Proposals: []model.SubstitutionProposal{}, Errors: []*model.ItemError{}}
	for i, item := range items {
		if errs[i] != nil {
			res.Errors = append(res.Errors, &model.ItemError{ItemID: item.ID(), Err: errs[i]})
			continue
		}
		res.Proposals = append(res.Proposals, proposals[i]...)
	}
	return res, nil
}

// GroupPurchaseOrders applies the approved proposals to the selections and
// partitions the result by vendor.
func (p *Pipeline) GroupPurchaseOrders(ctx context.Context, req GroupRequest) (pogroup.Result, error) {
	if err := ctx.Err(); err != nil {
		return pogroup.Result{}, err
	}
	snap, err := p.Index.Snapshot()
	if err != nil {
		return pogroup.Result{}, err
	}

	final, applied := substitute.ApplyDecisions(req.Selections, req.Proposals)
	return p.Grouper.Group(snap, pogroup.Request{
		Items:             req.Items,
		Selections:        final,
		Substitutions:     applied,
		ExcludeOutOfStock: req.ExcludeOutOfStock,
	})
}

// Selector picks an offer for an item from its ranking. Returning false
// leaves the item without a selection.
type Selector func(item model.NormalizedItem, ranked []model.RankedOffer) (string, bool)

// SelectTopRanked picks the rank 1 offer.
func SelectTopRanked(_ model.NormalizedItem, ranked []model.RankedOffer) (string, bool) {
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].OfferID, true
}

// SelectTopAvailable picks the best ranked offer that is in stock.
func SelectTopAvailable(_ model.NormalizedItem, ranked []model.RankedOffer) (string, bool) {
	for _, r := range ranked {
		if r.IsAvailable {
			return r.OfferID, true
		}
	}
	return "", false
}

type RunResult struct {
	Normalized  NormalizeResult                `json:"normalized"`
	Rankings    map[string][]model.RankedOffer `json:"rankings"`
	Selections  map[string]string              `json:"selections"`
	Suggestions SuggestResult                  `json:"suggestions"`
}

// Run chains normalize, rank, select and suggest. The buyer still has to
// decide on the proposals before GroupPurchaseOrders.
func (p *Pipeline) Run(ctx context.Context, raws []model.RawLineItem, selector Selector) (RunResult, error) {
	if selector == nil {
		selector = SelectTopRanked
	}

	normalized, err := p.Normalize(ctx, raws)
	if err != nil {
		return RunResult{}, fmt.Errorf("normalize: %w", err)
	}
	rankings, err := p.RankVendors(ctx, normalized.Items)
	if err != nil {
		return RunResult{}, fmt.Errorf("rank: %w", err)
	}

	selections := make(map[string]string, len(normalized.Items))
	for _, item := range normalized.Items {
		if offerID, ok := selector(item, rankings[item.ID()]); ok {
			selections[item.ID()] = offerID
		}
	}

	suggestions, err := p.SuggestSubstitutions(ctx, normalized.Items, selections)
	if err != nil {
		return RunResult{}, fmt.Errorf("suggest: %w", err)
	}
	return RunResult{
		Normalized:  normalized,
		Rankings:    rankings,
		Selections:  selections,
		Suggestions: suggestions,
	}, nil
}

// each runs fn for indices 0..n-1 on at most Workers goroutines and stops
// handing out work once ctx is done.
func (p *Pipeline) each(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

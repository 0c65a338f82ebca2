package service

import (
	"context"
	"strings"

	"github.com/okian/overcall/internal/domain/fanout"
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
	"github.com/okian/overcall/pkg/metrics"
)

// enrichment is the baseline view of a request after the store lookup.
type enrichment struct {
	telemetry model.Baseline
	roster    []model.RosterPlayer
	degraded  []types.Degraded
}

// enrich fills baselines the request did not carry from the store. The
// request's own roster is never mutated; a copy is returned instead.
// A failed or slow lookup keeps the live telemetry and records a degradation.
func (s *Service) enrich(ctx context.Context, req model.NormalizedRequest) enrichment { //nolint:gocritic // hugeParam
	e := enrichment{telemetry: req.Telemetry.Baseline, roster: req.Roster}

	ids := missingBaselines(req)
	if len(ids) == 0 {
		return e
	}

	cctx, cancel := context.WithTimeout(ctx, s.baselineTimeout)
	defer cancel()
	found, err := s.store.GetBaselines(cctx, ids)
	if err != nil {
		metrics.RecordBaselineLookup("error", len(ids))
		s.logger.Warn(ctx, "baseline unavailable",
			logger.String("request_id", req.RequestID),
			logger.Int("players", len(ids)),
			logger.Error(err))
		e.degraded = []types.Degraded{{
			Layer:  types.LayerBaseline,
			Reason: fanout.Sanitize("baseline unavailable: " + err.Error()),
		}}
		return e
	}
	if len(found) == 0 {
		metrics.RecordBaselineLookup("miss", len(ids))
		return e
	}
	metrics.RecordBaselineLookup("hit", len(found))

	if b, ok := found[baselineKey(req.Telemetry.PlayerID)]; ok && !req.Telemetry.Baseline.Provided {
		e.telemetry = b
	}
	e.roster = make([]model.RosterPlayer, len(req.Roster))
	copy(e.roster, req.Roster)
	for i, p := range e.roster {
		if p.Baseline.Provided {
			continue
		}
		if b, ok := found[baselineKey(p.PlayerID)]; ok {
			e.roster[i].Baseline = b
		}
	}
	return e
}

// missingBaselines lists the distinct player ids whose baseline came from defaults.
func missingBaselines(req model.NormalizedRequest) []string { //nolint:gocritic // hugeParam
	seen := map[string]bool{}
	var ids []string
	add := func(id string, b model.Baseline) {
		k := baselineKey(id)
		if k == "" || b.Provided || seen[k] {
			return
		}
		seen[k] = true
		ids = append(ids, k)
	}
	add(req.Telemetry.PlayerID, req.Telemetry.Baseline)
	for _, p := range req.Roster {
		add(p.PlayerID, p.Baseline)
	}
	return ids
}

func baselineKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

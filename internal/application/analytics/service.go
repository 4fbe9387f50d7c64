// Package analytics serves dashboard snapshots computed from the full
// audit log.
package analytics

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/SatvikDB/aegis/internal/application"
	"github.com/SatvikDB/aegis/internal/domain/analytics"
	"github.com/SatvikDB/aegis/internal/domain/eventlog"
)

type Service struct {
	Log    eventlog.Log
	Engine analytics.Engine
	Clock  application.Clock
}

// Dashboard reads the whole log and computes the snapshot. A missing or
// unreadable log degrades to the empty snapshot so the dashboard always
// renders.
func (s *Service) Dashboard(ctx context.Context) analytics.Snapshot {
	now := s.Clock.Now()
	rows, err := s.Log.ReadAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reading event log for dashboard failed")
		return analytics.EmptySnapshot(now)
	}
	return s.Engine.Compute(rows, now)
}

// Recent returns the newest audit rows, for the log feed endpoint.
func (s *Service) Recent(ctx context.Context, limit int) ([]eventlog.Row, error) {
	return s.Log.ReadRecent(ctx, limit)
}

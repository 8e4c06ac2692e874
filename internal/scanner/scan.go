package scanner

import (
	"context"
	"io"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/session"
)

// Scan runs the whole pipeline once on a throwaway session: load r, select
// region in source pixels, extract, and search. A zero region uses the
// detected text block, or the whole image when none is found.
func (s *Service) Scan(ctx context.Context, r io.Reader, region imaging.Region) (session.Snapshot, error) {
	sess := s.store.Create()
	defer s.store.Evict(sess.ID)

	snap, err := s.Upload(ctx, sess.ID, r)
	if err != nil {
		return snap, err
	}

	if region.Empty() {
		switch {
		case snap.Suggested != nil:
			region = *snap.Suggested
		default:
			region = imaging.Region{Width: snap.Width, Height: snap.Height}
		}
	}

	sel := imaging.Selection{
		Left:   float64(region.Left),
		Top:    float64(region.Top),
		Width:  float64(region.Width),
		Height: float64(region.Height),
	}
	if snap, err = s.SelectRegion(sess.ID, sel, SourceSpace); err != nil {
		return snap, err
	}
	if snap, err = s.Extract(ctx, sess.ID); err != nil {
		return snap, err
	}
	return s.Search(ctx, sess.ID)
}

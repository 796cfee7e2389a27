package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/pkg/filters"
	"github.com/Faultbox/meshprep/pkg/geometry"
)

// Batch packs geometries, in order, into combined geometries of at most
// geometry.MaxUnsignedShortVertices vertices each. A geometry that is larger
// on its own forms a batch by itself. Attributes not shared by every member of
// a batch are dropped by filters.Combine.
func (p *Pipeline) Batch(ctx context.Context, geometries []*geometry.Geometry) ([]*geometry.Geometry, error) {
	if len(geometries) == 0 {
		return nil, geometry.Structural("pipeline.Batch", "", geometry.ErrNoInstances, "")
	}

	var (
		batches []*geometry.Geometry
		pending []*geometry.Instance
		total   int
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		combined, err := filters.Combine(pending)
		if err != nil {
			return fmt.Errorf("batch %d: %w", len(batches), err)
		}
		if dropped, owners := droppedAttributes(pending, combined); len(dropped) > 0 {
			p.log.Warn("attributes dropped from batch",
				zap.Int("batch", len(batches)),
				zap.Strings("attributes", dropped),
				zap.Stringers("instances", owners))
		}
		p.log.Debug("batch packed",
			zap.Int("batch", len(batches)),
			zap.Int("instances", len(pending)),
			zap.Int("vertices", total))
		batches = append(batches, combined)
		pending = nil
		total = 0
		return nil
	}

	for i, g := range geometries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g == nil {
			return nil, geometry.Structural("pipeline.Batch", "", geometry.ErrNilGeometry, fmt.Sprintf("geometry %d", i))
		}
		n, err := g.NumberOfVertices()
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		if total+n > geometry.MaxUnsignedShortVertices && len(pending) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		pending = append(pending, geometry.NewInstance(g))
		total += n
	}
	if err := flush(); err != nil {
		return nil, err
	}

	p.log.Info("batched", zap.Int("inputs", len(geometries)), zap.Int("batches", len(batches)))
	return batches, nil
}

// droppedAttributes lists attribute names some member had but the batch lacks,
// and the members that carried them.
func droppedAttributes(members []*geometry.Instance, combined *geometry.Geometry) ([]string, []uuid.UUID) {
	seen := make(map[string]bool)
	var (
		dropped []string
		owners  []uuid.UUID
	)
	for _, inst := range members {
		owner := false
		for _, name := range inst.Geometry.AttributeNames() {
			if _, ok := combined.Attributes[name]; ok {
				continue
			}
			owner = true
			if !seen[name] {
				seen[name] = true
				dropped = append(dropped, name)
			}
		}
		if owner {
			owners = append(owners, inst.ID)
		}
	}
	return dropped, owners
}

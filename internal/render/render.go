package render

import (
	"context"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// Renderer consumes one snapshot per tick. Implementations must respect
// the context deadline: the update loop never waits on a sink beyond its
// bounded render window.
type Renderer interface {
	Render(ctx context.Context, snap *model.LiveSnapshot) error
}

package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// Console writes a human-readable snapshot summary per tick
type Console struct {
	out io.Writer
}

// NewConsole renders to stdout
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleTo renders to an arbitrary writer
func NewConsoleTo(w io.Writer) *Console {
	return &Console{out: w}
}

// Render implements Renderer
func (c *Console) Render(_ context.Context, snap *model.LiveSnapshot) error {
	fmt.Fprintf(c.out, "\n===== LIVE FORECAST [%s] =====\n", snap.Symbol)
	fmt.Fprintf(c.out, "%s | status: %s\n", snap.AsOf.Format(time.RFC3339), snap.Status)

	switch snap.Status {
	case model.StatusStale:
		fmt.Fprintf(c.out, "NO UPDATE THIS TICK - showing last known data\n")
	case model.StatusReseeded:
		fmt.Fprintf(c.out, "ENSEMBLE RESEEDED - survivor history restarted\n")
	case model.StatusStalled:
		fmt.Fprintf(c.out, "ALL PATHS ELIMINATED - reseeding next tick\n")
	}

	fmt.Fprintf(c.out, "Price: %.5f (offset %d)\n", snap.Observation.Price, snap.Offset)
	fmt.Fprintf(c.out, "Paths: %d/%d alive (%.1f%%) | eliminated this tick: %d\n",
		snap.SurvivingPaths, snap.TotalPaths, snap.SurvivalRate()*100, snap.EliminatedNow)

	if snap.Stats != nil {
		fmt.Fprintf(c.out, "Band: mean %.5f | p10 %.5f | p50 %.5f | p90 %.5f\n",
			snap.Stats.Mean, snap.Stats.P10, snap.Stats.P50, snap.Stats.P90)
	}

	if len(snap.Zones) > 0 {
		fmt.Fprintf(c.out, "\nReversal Zones:\n")
		for _, z := range snap.Zones {
			fmt.Fprintf(c.out, "  %-11s %.5f - %.5f | paths: %d (%.1f%%)\n",
				z.Type, z.PriceLow, z.PriceHigh, z.PathCount, z.Probability*100)
		}
	}
	return nil
}

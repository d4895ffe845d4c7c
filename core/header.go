package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/hazardtable/internal/contract"
)

// LogDeriveHeader prints a concise, 2-line header for a derive run on stderr.
func LogDeriveHeader(ctx context.Context, cfg *contract.Config) {
	if shouldSuppressHeader(ctx) {
		return
	}
	s := cfg.Settings
	classes := make([]string, len(s.SiteClasses))
	for i, sc := range s.SiteClasses {
		classes[i] = sc.Key
	}

	// Line 1: the dataset and the site classes
	_, _ = fmt.Fprintf(os.Stderr, "🌋 Dataset: %s (Site classes: %s)\n", filepath.Base(cfg.DatasetPath), strings.Join(classes, ","))

	// Line 2: the return periods and the enabled stages
	var stages []string
	if s.ApplyPGAReduction {
		stages = append(stages, "pga-reduction")
	}
	if s.ApplyLowerBound {
		stages = append(stages, "lower-bound@"+s.Controlling.Site)
	}
	if s.ApplyRounding {
		stages = append(stages, "rounding")
	}
	if len(stages) == 0 {
		stages = append(stages, "none")
	}
	_, _ = fmt.Fprintf(os.Stderr, "📐 APoE: 1/%s (Stages: %s)\n", contract.FormatReturnPeriods(s.ReturnPeriods), strings.Join(stages, ","))
}

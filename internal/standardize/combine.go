package standardize

import (
	"context"
	"log/slog"

	apperrors "povcli/internal/errors"
	"povcli/internal/table"
	"povcli/pkg/contracts/domain"
)

// Combine concatenates the standardized vintages, enforces the unique
// public index and restricts the result to the codebook columns in
// codebook order. Rows are sorted by country and year.
func Combine(ctx context.Context, frames []*table.Frame, codebook *Codebook, logger *slog.Logger) (*table.Frame, error) {
	if logger == nil {
		logger = slog.Default()
	}

	all := table.Concat(frames...)

	if dups := all.DuplicateKeys(domain.PublicIndex...); len(dups) > 0 {
		return nil, &apperrors.DuplicateIndexError{Index: domain.PublicIndex, Keys: dups}
	}

	var missing, dropped []string
	for _, c := range codebook.Columns {
		if !all.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	for _, c := range all.Columns() {
		if !codebook.Has(c) {
			dropped = append(dropped, c)
		}
	}
	if len(missing) > 0 {
		logger.WarnContext(ctx, "codebook columns missing from data, filled with nulls",
			slog.Any("columns", missing))
	}
	if len(dropped) > 0 {
		logger.DebugContext(ctx, "columns not in codebook dropped", slog.Any("columns", dropped))
	}

	out := all.Select(codebook.Columns...).SortBy(domain.ColCountry, domain.ColYearPublic)

	logger.InfoContext(ctx, "dataset combined",
		slog.Int("vintages", len(frames)),
		slog.Int("rows", out.Len()),
		slog.Int("columns", len(codebook.Columns)))
	return out, nil
}

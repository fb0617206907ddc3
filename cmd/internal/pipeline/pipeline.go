// Package pipeline runs one enrichment pass over a tabular dataset:
// resolve each row's CNPJ through the cache or the remote lookup, merge
// the selected payload fields into existing columns, and report progress
// to an observer. Row failures never abort the batch.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cnpjsaneador/cmd/internal/infrastructure/spreadsheet"
	"cnpjsaneador/cmd/internal/utils"

	"github.com/labstack/gommon/log"
)

// IdentifierColumn is the dataset column holding the raw identifier.
const IdentifierColumn = "CNPJ"

// Reporter receives the observable signals of a run: zero or more
// progress percentages (non-decreasing, ending at 100 on success)
// followed by exactly one terminal callback.
type Reporter interface {
	Progress(percentage int)
	Completed(outputPath string)
	Failed(message string)
}

// LookupClient fetches the payload for one canonical identifier.
type LookupClient interface {
	Fetch(ctx context.Context, cnpj string) (map[string]any, error)
}

// Cache resolves identifiers before the remote service is consulted.
type Cache interface {
	Get(cnpj string) (map[string]any, bool)
	Set(cnpj string, payload map[string]any) error
}

// Summary carries the row counters of a finished run.
type Summary struct {
	RowsTotal      int
	RowsUpdated    int
	RowsUnresolved int
}

type Pipeline struct {
	cache  Cache
	client LookupClient
	logger *log.Logger
}

func New(cache Cache, client LookupClient, logger *log.Logger) *Pipeline {
	return &Pipeline{
		cache:  cache,
		client: client,
		logger: logger,
	}
}

// Run processes every row of the dataset at inputPath in order, writing
// the result next to it with the update suffix. Rows are strictly
// sequential: the cache is not safe for concurrent writers and the
// remote service is rate-unaware. There is no cancellation once started.
func (p *Pipeline) Run(ctx context.Context, inputPath string, fields []string, reporter Reporter) Summary {
	var summary Summary

	table, err := spreadsheet.Load(inputPath)
	if err != nil {
		msg := fmt.Sprintf("failed to load dataset: %v", err)
		p.logger.Error(msg)
		reporter.Failed(msg)
		return summary
	}

	total := table.Len()
	summary.RowsTotal = total

	for i := 0; i < total; i++ {
		if p.processRow(ctx, table, i, fields) {
			summary.RowsUpdated++
		} else {
			summary.RowsUnresolved++
		}
		reporter.Progress((i + 1) * 100 / total)
	}

	outputPath := spreadsheet.OutputPath(inputPath)
	if err := table.WriteTo(outputPath); err != nil {
		msg := fmt.Sprintf("failed to write output file: %v", err)
		p.logger.Error(msg)
		reporter.Failed(msg)
		return summary
	}

	p.logger.Infof("run finished, file saved: %s (%d rows, %d updated, %d unresolved)",
		outputPath, summary.RowsTotal, summary.RowsUpdated, summary.RowsUnresolved)
	reporter.Completed(outputPath)
	return summary
}

// processRow resolves and merges a single row, reporting whether it was
// updated. Every failure is scoped to the row: logged, row left as-is,
// batch continues.
func (p *Pipeline) processRow(ctx context.Context, table *spreadsheet.Table, row int, fields []string) (updated bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("row %d: unexpected failure: %v", row, r)
			updated = false
		}
	}()

	raw, ok := table.Value(row, IdentifierColumn)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		p.logger.Warnf("row %d: missing %s identifier", row, IdentifierColumn)
		return false
	}

	cnpj := utils.CanonicalCNPJ(raw)
	if !utils.IsCNPJValid(cnpj) {
		p.logger.Debugf("row %d: CNPJ %s fails check digit validation, attempting lookup anyway", row, cnpj)
	}

	payload, hit := p.cache.Get(cnpj)
	if !hit {
		fetched, err := p.client.Fetch(ctx, cnpj)
		if err != nil {
			p.logger.Warnf("could not resolve data for CNPJ %s: %v", cnpj, err)
			return false
		}
		if err := p.cache.Set(cnpj, fetched); err != nil {
			p.logger.Errorf("row %d: failed to persist cache entry for CNPJ %s: %v", row, cnpj, err)
			return false
		}
		payload = fetched
	}

	for _, field := range fields {
		value, present := payload[field]
		if !present {
			continue
		}
		if !table.SetValue(row, field, cellString(value)) {
			p.logger.Debugf("row %d: selected field %q has no matching column, dropped", row, field)
		}
	}

	p.logger.Infof("CNPJ %s updated", cnpj)
	return true
}

// cellString renders a payload value into a cell. JSON numbers arrive as
// float64; integral ones must not gain a trailing ".0" in the output.
func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"cnpjsaneador/cmd/internal/infrastructure/spreadsheet"

	"github.com/labstack/gommon/log"
)

type fakeCache struct {
	entries map[string]map[string]any
	setErr  error
	sets    []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]map[string]any)}
}

func (f *fakeCache) Get(cnpj string) (map[string]any, bool) {
	payload, ok := f.entries[cnpj]
	return payload, ok
}

func (f *fakeCache) Set(cnpj string, payload map[string]any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[cnpj] = payload
	f.sets = append(f.sets, cnpj)
	return nil
}

type fakeClient struct {
	payloads map[string]map[string]any
	calls    []string
}

func (f *fakeClient) Fetch(_ context.Context, cnpj string) (map[string]any, error) {
	f.calls = append(f.calls, cnpj)
	payload, ok := f.payloads[cnpj]
	if !ok {
		return nil, errors.New("lookup service failed with status code: 429")
	}
	return payload, nil
}

type recordingReporter struct {
	progress  []int
	completed []string
	failed    []string
}

func (r *recordingReporter) Progress(percentage int) { r.progress = append(r.progress, percentage) }
func (r *recordingReporter) Completed(path string)   { r.completed = append(r.completed, path) }
func (r *recordingReporter) Failed(message string)   { r.failed = append(r.failed, message) }

func testLogger() *log.Logger {
	logger := log.New("test")
	logger.SetOutput(io.Discard)
	return logger
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planilha.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func cell(t *testing.T, path string, row int, column string) string {
	t.Helper()
	table, err := spreadsheet.Load(path)
	if err != nil {
		t.Fatalf("failed to load output: %v", err)
	}
	value, ok := table.Value(row, column)
	if !ok {
		t.Fatalf("column %q missing in output", column)
	}
	return value
}

func TestRun_EndToEnd(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n11222333000181,old1\n,old2\n44555666000199,old3\n")

	cache := newFakeCache()
	cache.entries["11222333000181"] = map[string]any{"nome": "Acme"}

	client := &fakeClient{payloads: map[string]map[string]any{
		"44555666000199": {"nome": "Beta"},
	}}
	reporter := &recordingReporter{}

	p := New(cache, client, testLogger())
	summary := p.Run(context.Background(), input, []string{"nome"}, reporter)

	// Terminal signal: exactly one completion carrying the derived path
	wantOut := spreadsheet.OutputPath(input)
	if len(reporter.completed) != 1 || reporter.completed[0] != wantOut {
		t.Fatalf("completed = %v, want [%s]", reporter.completed, wantOut)
	}
	if len(reporter.failed) != 0 {
		t.Fatalf("unexpected failure signals: %v", reporter.failed)
	}

	// Progress after every row, ending at 100
	wantProgress := []int{33, 66, 100}
	if len(reporter.progress) != len(wantProgress) {
		t.Fatalf("progress = %v, want %v", reporter.progress, wantProgress)
	}
	for i, pct := range wantProgress {
		if reporter.progress[i] != pct {
			t.Errorf("progress[%d] = %d, want %d", i, reporter.progress[i], pct)
		}
	}

	// Row 1: cache hit, no remote call
	if got := cell(t, wantOut, 0, "nome"); got != "Acme" {
		t.Errorf("row 0 nome = %q, want Acme", got)
	}
	// Row 2: malformed identifier, left unmodified
	if got := cell(t, wantOut, 1, "nome"); got != "old2" {
		t.Errorf("row 1 nome = %q, want old2", got)
	}
	// Row 3: remote hit, cache updated
	if got := cell(t, wantOut, 2, "nome"); got != "Beta" {
		t.Errorf("row 2 nome = %q, want Beta", got)
	}

	if len(client.calls) != 1 || client.calls[0] != "44555666000199" {
		t.Errorf("remote calls = %v, want only row 3's identifier", client.calls)
	}
	if len(cache.sets) != 1 || cache.sets[0] != "44555666000199" {
		t.Errorf("cache writes = %v, want only row 3's identifier", cache.sets)
	}

	if summary.RowsTotal != 3 || summary.RowsUpdated != 2 || summary.RowsUnresolved != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestRun_ShortIdentifierIsCanonicalized(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n1234,old\n")

	cache := newFakeCache()
	client := &fakeClient{payloads: map[string]map[string]any{
		"00000000001234": {"nome": "Padded"},
	}}
	reporter := &recordingReporter{}

	p := New(cache, client, testLogger())
	p.Run(context.Background(), input, []string{"nome"}, reporter)

	if len(client.calls) != 1 || client.calls[0] != "00000000001234" {
		t.Fatalf("remote calls = %v, want canonical identifier", client.calls)
	}
	if got := cell(t, spreadsheet.OutputPath(input), 0, "nome"); got != "Padded" {
		t.Errorf("row 0 nome = %q, want Padded", got)
	}
}

func TestRun_RemoteFailureLeavesRowUntouched(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n11222333000181,old\n")

	cache := newFakeCache()
	client := &fakeClient{} // every fetch fails
	reporter := &recordingReporter{}

	p := New(cache, client, testLogger())
	summary := p.Run(context.Background(), input, []string{"nome"}, reporter)

	if got := cell(t, spreadsheet.OutputPath(input), 0, "nome"); got != "old" {
		t.Errorf("row 0 nome = %q, want old", got)
	}
	if len(cache.sets) != 0 {
		t.Errorf("no cache entry should be created, got %v", cache.sets)
	}
	if len(reporter.completed) != 1 {
		t.Errorf("run should still complete, completed = %v", reporter.completed)
	}
	if summary.RowsUnresolved != 1 {
		t.Errorf("RowsUnresolved = %d, want 1", summary.RowsUnresolved)
	}
}

func TestRun_CachePersistFailureIsRowScoped(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n11222333000181,old1\n44555666000199,old2\n")

	cache := newFakeCache()
	cache.setErr = errors.New("disk full")
	client := &fakeClient{payloads: map[string]map[string]any{
		"11222333000181": {"nome": "Acme"},
		"44555666000199": {"nome": "Beta"},
	}}
	reporter := &recordingReporter{}

	p := New(cache, client, testLogger())
	summary := p.Run(context.Background(), input, []string{"nome"}, reporter)

	// Both rows stay unmerged, the batch still completes
	out := spreadsheet.OutputPath(input)
	if got := cell(t, out, 0, "nome"); got != "old1" {
		t.Errorf("row 0 nome = %q, want old1", got)
	}
	if got := cell(t, out, 1, "nome"); got != "old2" {
		t.Errorf("row 1 nome = %q, want old2", got)
	}
	if len(reporter.completed) != 1 {
		t.Errorf("run should complete despite persist failures")
	}
	if summary.RowsUnresolved != 2 {
		t.Errorf("RowsUnresolved = %d, want 2", summary.RowsUnresolved)
	}
}

func TestRun_SelectedFieldWithoutColumnIsDropped(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n11222333000181,old\n")

	cache := newFakeCache()
	cache.entries["11222333000181"] = map[string]any{"nome": "Acme", "uf": "SP"}
	reporter := &recordingReporter{}

	p := New(cache, &fakeClient{}, testLogger())
	p.Run(context.Background(), input, []string{"nome", "uf"}, reporter)

	out := spreadsheet.OutputPath(input)
	table, err := spreadsheet.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if table.HasColumn("uf") {
		t.Error("columns must never be created for dropped fields")
	}
	if got := cell(t, out, 0, "nome"); got != "Acme" {
		t.Errorf("row 0 nome = %q, want Acme", got)
	}
}

func TestRun_NumericPayloadValues(t *testing.T) {
	input := writeCSV(t, "CNPJ,capital_social\n11222333000181,\n")

	cache := newFakeCache()
	cache.entries["11222333000181"] = map[string]any{"capital_social": float64(150000)}
	reporter := &recordingReporter{}

	p := New(cache, &fakeClient{}, testLogger())
	p.Run(context.Background(), input, []string{"capital_social"}, reporter)

	if got := cell(t, spreadsheet.OutputPath(input), 0, "capital_social"); got != "150000" {
		t.Errorf("capital_social = %q, want 150000 without decimal suffix", got)
	}
}

func TestRun_UnreadableDatasetFails(t *testing.T) {
	reporter := &recordingReporter{}

	p := New(newFakeCache(), &fakeClient{}, testLogger())
	p.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), []string{"nome"}, reporter)

	if len(reporter.failed) != 1 {
		t.Fatalf("failed = %v, want exactly one failure signal", reporter.failed)
	}
	if len(reporter.completed) != 0 {
		t.Errorf("completion must not follow failure: %v", reporter.completed)
	}
	if len(reporter.progress) != 0 {
		t.Errorf("no progress should be emitted on load failure: %v", reporter.progress)
	}
}

func TestRun_UnwritableOutputFails(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n11222333000181,old\n")

	// Occupy the derived output path with a directory
	if err := os.Mkdir(spreadsheet.OutputPath(input), 0755); err != nil {
		t.Fatal(err)
	}

	cache := newFakeCache()
	cache.entries["11222333000181"] = map[string]any{"nome": "Acme"}
	reporter := &recordingReporter{}

	p := New(cache, &fakeClient{}, testLogger())
	p.Run(context.Background(), input, []string{"nome"}, reporter)

	if len(reporter.failed) != 1 {
		t.Fatalf("failed = %v, want exactly one failure signal", reporter.failed)
	}
	if len(reporter.completed) != 0 {
		t.Errorf("completion must not follow failure: %v", reporter.completed)
	}
	// Progress was already reported for the processed rows
	if len(reporter.progress) != 1 || reporter.progress[0] != 100 {
		t.Errorf("progress = %v, want [100]", reporter.progress)
	}
}

func TestRun_ProgressIsMonotone(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n1,a\n2,b\n3,c\n4,d\n5,e\n6,f\n7,g\n")

	reporter := &recordingReporter{}
	p := New(newFakeCache(), &fakeClient{}, testLogger())
	p.Run(context.Background(), input, []string{"nome"}, reporter)

	if len(reporter.progress) != 7 {
		t.Fatalf("expected one progress event per row, got %v", reporter.progress)
	}
	last := 0
	for i, pct := range reporter.progress {
		if pct < last {
			t.Fatalf("progress decreased at index %d: %v", i, reporter.progress)
		}
		last = pct
	}
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestRun_EmptyDatasetCompletes(t *testing.T) {
	input := writeCSV(t, "CNPJ,nome\n")

	reporter := &recordingReporter{}
	p := New(newFakeCache(), &fakeClient{}, testLogger())
	summary := p.Run(context.Background(), input, []string{"nome"}, reporter)

	if len(reporter.progress) != 0 {
		t.Errorf("no progress expected for zero rows: %v", reporter.progress)
	}
	if len(reporter.completed) != 1 {
		t.Errorf("zero-row run should still complete: %v", reporter.completed)
	}
	if summary.RowsTotal != 0 {
		t.Errorf("RowsTotal = %d, want 0", summary.RowsTotal)
	}
}

func TestRun_MissingIdentifierColumnIsRowFailure(t *testing.T) {
	input := writeCSV(t, "codigo,nome\n123,old\n")

	reporter := &recordingReporter{}
	p := New(newFakeCache(), &fakeClient{}, testLogger())
	summary := p.Run(context.Background(), input, []string{"nome"}, reporter)

	// Every row fails soft, the run itself completes
	if len(reporter.completed) != 1 {
		t.Fatalf("completed = %v, want one completion", reporter.completed)
	}
	if summary.RowsUnresolved != 1 {
		t.Errorf("RowsUnresolved = %d, want 1", summary.RowsUnresolved)
	}
}

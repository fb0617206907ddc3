package service

import (
	"io"
	"os"
	"strings"
	"testing"

	"cnpjsaneador/cmd/internal/domain/entity"
	"cnpjsaneador/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

func newTestDatasetService(t *testing.T) (*DatasetService, *memDatasetRepo) {
	t.Helper()
	logger := log.New("test")
	logger.SetOutput(io.Discard)

	repo := &memDatasetRepo{items: make(map[string]*entity.Dataset)}
	return NewDatasetService(repo, t.TempDir(), logger), repo
}

func TestSaveUpload(t *testing.T) {
	svc, repo := newTestDatasetService(t)

	resp, apierr := svc.SaveUpload("empresas.csv", strings.NewReader("CNPJ,nome\n123,Acme\n"))
	if apierr != nil {
		t.Fatalf("SaveUpload failed: %v", apierr)
	}

	if resp.OriginalName != "empresas.csv" {
		t.Errorf("original name = %q", resp.OriginalName)
	}
	if len(resp.Columns) != 2 || resp.Columns[0] != "CNPJ" || resp.Columns[1] != "nome" {
		t.Errorf("unexpected columns: %v", resp.Columns)
	}

	stored, ok := repo.items[resp.ID]
	if !ok {
		t.Fatal("dataset was not registered")
	}
	if _, err := os.Stat(stored.StoredPath); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestSaveUpload_RejectsUnsupportedExtension(t *testing.T) {
	svc, _ := newTestDatasetService(t)

	_, apierr := svc.SaveUpload("empresas.xlsx", strings.NewReader("x"))
	if apierr != apierror.UnsupportedFileError {
		t.Errorf("SaveUpload() error = %v, want UnsupportedFileError", apierr)
	}
}

func TestSaveUpload_RejectsUnreadableDataset(t *testing.T) {
	svc, repo := newTestDatasetService(t)

	_, apierr := svc.SaveUpload("vazio.csv", strings.NewReader(""))
	if apierr == nil || apierr.Code() != 400 {
		t.Fatalf("SaveUpload() error = %v, want a 400", apierr)
	}
	if len(repo.items) != 0 {
		t.Error("rejected upload must not be registered")
	}
}

func TestGetDataset(t *testing.T) {
	svc, _ := newTestDatasetService(t)

	resp, apierr := svc.SaveUpload("empresas.csv", strings.NewReader("CNPJ,nome\n123,Acme\n456,Beta\n"))
	if apierr != nil {
		t.Fatal(apierr)
	}

	detail, apierr := svc.GetDataset(resp.ID)
	if apierr != nil {
		t.Fatalf("GetDataset failed: %v", apierr)
	}
	if detail.RowCount != 2 {
		t.Errorf("row count = %d, want 2", detail.RowCount)
	}
	if len(detail.Columns) != 2 {
		t.Errorf("unexpected columns: %v", detail.Columns)
	}
}

func TestGetDataset_Unknown(t *testing.T) {
	svc, _ := newTestDatasetService(t)

	_, apierr := svc.GetDataset("missing")
	if apierr != apierror.DatasetNotFoundError {
		t.Errorf("GetDataset() error = %v, want DatasetNotFoundError", apierr)
	}
}

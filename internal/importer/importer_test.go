package importer_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rcjk/internal/api"
	"rcjk/internal/glif"
	"rcjk/internal/importer"
	"rcjk/internal/services"
	"rcjk/internal/store"
	"rcjk/internal/testsupport"
)

type member struct {
	name    string
	content string
}

func writeArchive(t *testing.T, members ...member) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "font.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			t.Fatalf("add %s: %v", m.name, err)
		}
		if _, err := w.Write([]byte(m.content)); err != nil {
			t.Fatalf("write %s: %v", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

// hanziArchive lists character glyphs before their components.
func hanziArchive(t *testing.T) string {
	return writeArchive(t,
		member{"Hanzi.rcjk/characterGlyph/uni4E_2D_.glif", testsupport.GlifXML(testsupport.Glif{Name: "uni4E2D", Unicode: "4E2D", Components: []string{"DC1"}})},
		member{"Hanzi.rcjk/characterGlyph/bold/uni4E_2D_.glif", testsupport.GlifXML(testsupport.Glif{Name: "uni4E2D", Unicode: "4E2D", Components: []string{"DC1"}})},
		member{"Hanzi.rcjk/deepComponent/D_C_1.glif", testsupport.GlifXML(testsupport.Glif{Name: "DC1", Components: []string{"line"}})},
		member{"Hanzi.rcjk/atomicElement/line.glif", testsupport.GlifXML(testsupport.Glif{Name: "line", Outline: true})},
		member{"Hanzi.rcjk/fontLib.json", `{"robocjk.fontVariations": ["wght"]}`},
		member{"Hanzi.rcjk/glyphsComposition.json", `{"version": 1}`},
		member{"Hanzi.rcjk/README.txt", "notes"},
	)
}

func newImporter(t *testing.T) (*store.Store, testsupport.Fixture, *importer.Importer) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	fx := testsupport.MustSeed(t, st)
	return st, fx, importer.New(st, api.NewGlifService(st), nil)
}

func TestImportLoadsArchiveInDependencyOrder(t *testing.T) {
	st, fx, im := newImporter(t)
	ctx := context.Background()

	summary, err := im.Import(ctx, fx.Font.ID, hanziArchive(t), fx.User)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Created != 3 || summary.Layers != 1 || summary.Failed != 0 || summary.Ignored != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Status != store.ImportCompleted || summary.JobID == "" {
		t.Fatalf("unexpected status: %+v", summary)
	}

	dc, err := st.FindGlif(ctx, glif.KindDeepComponent, fx.Font.ID, "DC1")
	if err != nil {
		t.Fatalf("FindGlif DC1: %v", err)
	}
	madeOf, err := st.MadeOf(ctx, glif.KindDeepComponent, dc.ID, glif.KindDeepComponent.Relations()[0])
	if err != nil || len(madeOf) != 1 || madeOf[0].Name != "line" {
		t.Fatalf("DC1 relations = %v, %v", madeOf, err)
	}
	cg, err := st.FindGlif(ctx, glif.KindCharacterGlyph, fx.Font.ID, "uni4E2D")
	if err != nil {
		t.Fatalf("FindGlif uni4E2D: %v", err)
	}
	layers, err := st.ListLayers(ctx, glif.KindCharacterGlyphLayer, cg.ID)
	if err != nil || len(layers) != 1 || layers[0].GroupName != "bold" {
		t.Fatalf("layers = %v, %v", layers, err)
	}

	font, err := st.GetFont(ctx, fx.Font.ID)
	if err != nil {
		t.Fatalf("GetFont: %v", err)
	}
	if !font.Available || !strings.Contains(font.FontLib, "fontVariations") {
		t.Fatalf("unexpected font after import: %+v", font)
	}
	comp, err := st.GetComposition(ctx, fx.Font.ID)
	if err != nil || comp.Data != `{"version": 1}` {
		t.Fatalf("composition = %v, %v", comp, err)
	}

	job, err := st.GetFontImport(ctx, summary.ImportID)
	if err != nil {
		t.Fatalf("GetFontImport: %v", err)
	}
	if job.Status != store.ImportCompleted {
		t.Fatalf("job status = %s", job.Status)
	}
	for _, line := range []string{"created atomicElement/line.glif", "saved layer characterGlyph/bold/uni4E_2D_.glif", "ignored Hanzi.rcjk/README.txt"} {
		if !strings.Contains(job.Logs, line) {
			t.Fatalf("job log lacks %q:\n%s", line, job.Logs)
		}
	}
}

func TestReimportUpdatesLockedGlifs(t *testing.T) {
	st, fx, im := newImporter(t)
	ctx := context.Background()
	if _, err := im.Import(ctx, fx.Font.ID, hanziArchive(t), fx.User); err != nil {
		t.Fatalf("first Import: %v", err)
	}
	bob := testsupport.MustUser(t, st, "bob")
	line, err := st.FindGlif(ctx, glif.KindAtomicElement, fx.Font.ID, "line")
	if err != nil {
		t.Fatalf("FindGlif: %v", err)
	}
	if _, err := st.Lock(ctx, glif.KindAtomicElement, line.ID, bob); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	summary, err := im.Import(ctx, fx.Font.ID, hanziArchive(t), fx.User)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if summary.Created != 0 || summary.Updated != 3 || summary.Layers != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestImportRecordsBadMembers(t *testing.T) {
	st, fx, im := newImporter(t)
	ctx := context.Background()
	archive := writeArchive(t,
		member{"atomicElement/line.glif", testsupport.GlifXML(testsupport.Glif{Name: "line", Outline: true})},
		member{"atomicElement/broken.glif", "<glyph"},
		member{"deepComponent/bold/D_C_1.glif", testsupport.GlifXML(testsupport.Glif{Name: "DC1"})},
	)

	summary, err := im.Import(ctx, fx.Font.ID, archive, fx.User)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Created != 1 || summary.Failed != 1 || summary.Ignored != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	job, err := st.GetFontImport(ctx, summary.ImportID)
	if err != nil {
		t.Fatalf("GetFontImport: %v", err)
	}
	if !strings.Contains(job.Logs, "failed atomicElement/broken.glif: parse_error") {
		t.Fatalf("job log lacks failure:\n%s", job.Logs)
	}
}

func TestImportRefusedWhileExporting(t *testing.T) {
	st, fx, im := newImporter(t)
	ctx := context.Background()
	if _, ok, err := st.BeginFontExport(ctx, fx.Font.ID); err != nil || !ok {
		t.Fatalf("BeginFontExport = %v, %v", ok, err)
	}

	summary, err := im.Import(ctx, fx.Font.ID, hanziArchive(t), fx.User)
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	job, gerr := st.GetFontImport(ctx, summary.ImportID)
	if gerr != nil || job.Status != store.ImportError {
		t.Fatalf("job = %+v, %v", job, gerr)
	}
	font, gerr := st.GetFont(ctx, fx.Font.ID)
	if gerr != nil || !font.Available {
		t.Fatalf("font must stay available: %+v, %v", font, gerr)
	}
}

func TestImportRejectsNonArchive(t *testing.T) {
	st, fx, im := newImporter(t)
	path := filepath.Join(t.TempDir(), "font.zip")
	testsupport.WriteFile(t, path, "not a zip")

	summary, err := im.Import(context.Background(), fx.Font.ID, path, fx.User)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	job, gerr := st.GetFontImport(context.Background(), summary.ImportID)
	if gerr != nil || job.Status != store.ImportError || !strings.Contains(job.Logs, "import failed") {
		t.Fatalf("job = %+v, %v", job, gerr)
	}
}

package importer

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"rcjk/internal/api"
	"rcjk/internal/glif"
	"rcjk/internal/logging"
	"rcjk/internal/services"
	"rcjk/internal/store"
)

// Store is the persistence an import reads and updates.
type Store interface {
	GetFont(ctx context.Context, id int64) (*store.Font, error)
	SetFontAvailable(ctx context.Context, id int64, available bool) error
	UpdateFontSources(ctx context.Context, id int64, sources store.FontSources, user *store.User) (*store.Font, error)
	SaveComposition(ctx context.Context, fontID int64, data string, user *store.User) (*store.GlyphsComposition, error)
	CreateFontImport(ctx context.Context, fontID int64, archivePath string, user *store.User) (*store.FontImport, error)
	SetImportStatus(ctx context.Context, id int64, status store.ImportStatus) error
	AppendImportLog(ctx context.Context, id int64, line string) error
}

// Glifs is the glif entry point imports write through.
type Glifs interface {
	Put(ctx context.Context, kind glif.Kind, fontID int64, data string, user *store.User, opts api.EditOptions) (api.Glif, bool, error)
	PutLayer(ctx context.Context, parentKind glif.Kind, parent api.Ref, group, data string, user *store.User, opts api.EditOptions) (api.Layer, error)
}

// Summary counts what an import did.
type Summary struct {
	ImportID int64
	JobID    string
	Status   store.ImportStatus
	Created  int
	Updated  int
	Layers   int
	Failed   int
	Ignored  int
}

// Importer runs font imports.
type Importer struct {
	store  Store
	glifs  Glifs
	logger *slog.Logger
}

// New constructs an Importer.
func New(st Store, glifs Glifs, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{store: st, glifs: glifs, logger: logging.NewComponentLogger(logger, "import")}
}

// job carries the state of one running import.
type job struct {
	*Importer
	record  *store.FontImport
	font    *store.Font
	user    *store.User
	logger  *slog.Logger
	summary *Summary
}

// Import loads the archive at archivePath into fontID as user. Individual
// members that fail to parse or save are logged on the job and counted; the
// import still completes. The returned error covers failures that stop the
// whole job, in which case the job ends in the error state.
func (im *Importer) Import(ctx context.Context, fontID int64, archivePath string, user *store.User) (*Summary, error) {
	font, err := im.store.GetFont(ctx, fontID)
	if err != nil {
		return nil, err
	}
	record, err := im.store.CreateFontImport(ctx, fontID, archivePath, user)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	ctx = services.WithFont(services.WithRunID(ctx, jobID), font.Name)
	j := &job{
		Importer: im,
		record:   record,
		font:     font,
		user:     user,
		logger:   logging.WithContext(ctx, im.logger),
		summary:  &Summary{ImportID: record.ID, JobID: jobID, Status: store.ImportWaiting},
	}
	j.logger.Info("font import started",
		logging.String(logging.FieldEventType, "import_start"),
		logging.Int64("import_id", record.ID),
		logging.String("archive", archivePath),
	)

	if err := j.run(ctx, archivePath); err != nil {
		j.log(ctx, "import failed: %v", err)
		j.finish(ctx, store.ImportError)
		logging.ErrorWithContext(j.logger, "font import failed", "import_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the font may be partially imported"),
		)
		return j.summary, err
	}
	j.finish(ctx, store.ImportCompleted)
	j.logger.Info("font import finished",
		logging.String(logging.FieldEventType, "import_finish"),
		logging.Int("created", j.summary.Created),
		logging.Int("updated", j.summary.Updated),
		logging.Int("layers", j.summary.Layers),
		logging.Int("failed", j.summary.Failed),
		logging.Int("ignored", j.summary.Ignored),
	)
	return j.summary, nil
}

func (j *job) run(ctx context.Context, archivePath string) error {
	if j.font.ExportRunning {
		return j.busy()
	}
	if err := j.store.SetFontAvailable(ctx, j.font.ID, false); err != nil {
		return err
	}
	defer func() {
		if err := j.store.SetFontAvailable(context.WithoutCancel(ctx), j.font.ID, true); err != nil {
			logging.ErrorWithContext(j.logger, "failed to mark font available", "import_font_available",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run rcjk font set --available"),
				logging.String(logging.FieldImpact, "exports skip the font until it is available again"),
			)
		}
	}()
	// An export may have taken the font between the first read and the flag.
	current, err := j.store.GetFont(ctx, j.font.ID)
	if err != nil {
		return err
	}
	if current.ExportRunning {
		return j.busy()
	}

	if err := j.setStatus(ctx, store.ImportLoading); err != nil {
		return err
	}
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "import", "open archive", archivePath, err)
	}
	defer reader.Close()

	c := classify(reader.File)
	j.summary.Ignored = len(c.ignored)
	for _, name := range c.ignored {
		j.log(ctx, "ignored %s", name)
	}
	if err := j.importDocuments(ctx, c.documents); err != nil {
		return err
	}
	for _, kind := range []glif.Kind{glif.KindAtomicElement, glif.KindDeepComponent, glif.KindCharacterGlyph} {
		for _, e := range c.glifs[kind] {
			if err := ctx.Err(); err != nil {
				return err
			}
			j.importGlif(ctx, e)
		}
	}
	for _, kind := range []glif.Kind{glif.KindAtomicElement, glif.KindCharacterGlyph} {
		for _, e := range c.layers[kind] {
			if err := ctx.Err(); err != nil {
				return err
			}
			j.importLayer(ctx, e)
		}
	}
	return nil
}

func (j *job) busy() error {
	return services.Wrap(services.ErrBusy, "import", "import font", fmt.Sprintf("font %q is being exported", j.font.Name), nil)
}

func (j *job) importDocuments(ctx context.Context, docs map[string]*zip.File) error {
	var sources store.FontSources
	targets := map[string]**string{
		fontLibEntry:     &sources.FontLib,
		featuresEntry:    &sources.Features,
		designspaceEntry: &sources.Designspace,
	}
	for name, target := range targets {
		f, ok := docs[name]
		if !ok {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			return err
		}
		*target = &content
		j.log(ctx, "loaded %s", name)
	}
	if sources.FontLib != nil || sources.Features != nil || sources.Designspace != nil {
		if _, err := j.store.UpdateFontSources(ctx, j.font.ID, sources, j.user); err != nil {
			return err
		}
	}
	if f, ok := docs[compositionEntry]; ok {
		content, err := readEntry(f)
		if err != nil {
			return err
		}
		if _, err := j.store.SaveComposition(ctx, j.font.ID, content, j.user); err != nil {
			return err
		}
		j.log(ctx, "loaded %s", compositionEntry)
	}
	return nil
}

func (j *job) importGlif(ctx context.Context, e entry) {
	data, err := readEntry(e.file)
	if err == nil {
		var created bool
		_, created, err = j.glifs.Put(ctx, e.kind, j.font.ID, data, j.user, api.EditOptions{IgnoreLock: true})
		if err == nil {
			if created {
				j.summary.Created++
				j.log(ctx, "created %s", e.rel)
			} else {
				j.summary.Updated++
				j.log(ctx, "updated %s", e.rel)
			}
			return
		}
	}
	j.fail(ctx, e, err)
}

func (j *job) importLayer(ctx context.Context, e entry) {
	data, err := readEntry(e.file)
	if err == nil {
		parsed := glif.Parse(data)
		if !parsed.OK() {
			err = parsed.Err()
		} else {
			parent := api.Ref{FontID: j.font.ID, Name: parsed.Name()}
			_, err = j.glifs.PutLayer(ctx, e.kind, parent, e.group, data, j.user, api.EditOptions{IgnoreLock: true})
		}
		if err == nil {
			j.summary.Layers++
			j.log(ctx, "saved layer %s", e.rel)
			return
		}
	}
	j.fail(ctx, e, err)
}

func (j *job) fail(ctx context.Context, e entry, err error) {
	j.summary.Failed++
	j.log(ctx, "failed %s: %s: %v", e.rel, services.Kind(err), err)
	logging.WarnWithContext(j.logger, "archive member not imported", "import_member_failed",
		logging.String("path", e.rel),
		logging.String(logging.FieldKind, string(e.kind)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "the glif keeps its previous content"),
	)
}

func (j *job) setStatus(ctx context.Context, status store.ImportStatus) error {
	if err := j.store.SetImportStatus(ctx, j.record.ID, status); err != nil {
		return err
	}
	j.summary.Status = status
	return nil
}

// finish records the final status even when ctx was cancelled.
func (j *job) finish(ctx context.Context, status store.ImportStatus) {
	if err := j.setStatus(context.WithoutCancel(ctx), status); err != nil {
		logging.ErrorWithContext(j.logger, "failed to record import status", "import_status",
			logging.Error(err),
			logging.String("status", string(status)),
		)
	}
}

func (j *job) log(ctx context.Context, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if err := j.store.AppendImportLog(context.WithoutCancel(ctx), j.record.ID, line); err != nil {
		j.logger.Debug("import log append failed", logging.Error(err), logging.String("line", line))
	}
}

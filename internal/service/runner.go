package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/subgemma/subtrans/internal/batch"
	"github.com/subgemma/subtrans/internal/document"
	"github.com/subgemma/subtrans/internal/translator"
	"github.com/subgemma/subtrans/internal/zhconv"
	"github.com/subgemma/subtrans/pkg/file"
	"github.com/subgemma/subtrans/pkg/log"
)

// TranslatorFactory builds the translator for one run's configuration.
// Indirection so tests (and the echo round-trip property) can stub the
// model without standing up an endpoint.
type TranslatorFactory func(cfg RunConfiguration) (translator.Translator, error)

// Runner drives whole translation runs: scan the input root, then push
// each file through parse, batch, translate, realign, normalize, serialize
// and write. Files are processed strictly sequentially; a file's failure
// is recorded and the run moves on.
type Runner struct {
	newTranslator TranslatorFactory
	checkpoints   BatchCheckpointStore
}

// NewRunner creates a Runner using factory to build per-run translators.
func NewRunner(factory TranslatorFactory) *Runner {
	return &Runner{newTranslator: factory}
}

// WithCheckpoints attaches a per-run batch checkpoint store.
func (r *Runner) WithCheckpoints(store BatchCheckpointStore) *Runner {
	r.checkpoints = store
	return r
}

// Run executes one configured run. The returned report lists every file's
// outcome; the error is non-nil only for run-level problems (bad
// configuration, unreadable input root), never for individual files.
func (r *Runner) Run(ctx context.Context, cfg RunConfiguration, progress ProgressFunc) (*RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	trans, err := r.newTranslator(cfg)
	if err != nil {
		return nil, WrapError(err, ErrConfig, "failed to build translator")
	}

	normalizer, err := zhconv.New(cfg.TargetLanguage)
	if err != nil {
		return nil, WrapError(err, ErrConfig, "failed to build script normalizer")
	}

	paths, err := file.FindByExt(cfg.InputRoot, cfg.FileType.Ext())
	if err != nil {
		return nil, WrapError(err, ErrFileRead, "failed to scan input root").
			WithContext("input_root", cfg.InputRoot)
	}

	report := &RunReport{}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		log.Info("translating %s (%d/%d)", path, i+1, len(paths))
		if err := r.processFile(ctx, cfg, trans, normalizer, path, i, len(paths), progress); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			log.Error("file failed, continuing with next: %v", err)
			report.add(FileResult{Path: path, Status: FileFailed, Error: err.Error()})
			continue
		}
		report.add(FileResult{Path: path, Status: FileTranslated})

		if progress != nil {
			progress(Progress{
				FilesDone:  i + 1,
				FilesTotal: len(paths),
			})
		}
	}

	return report, nil
}

// processFile runs the full pipeline for one input file. Any error leaves
// no partial output behind.
func (r *Runner) processFile(
	ctx context.Context,
	cfg RunConfiguration,
	trans translator.Translator,
	normalizer *zhconv.Normalizer,
	path string,
	fileIndex, fileCount int,
	progress ProgressFunc,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapError(err, ErrFileRead, "failed to read input file").WithContext("path", path)
	}

	doc, err := document.Parse(data, cfg.FileType)
	if err != nil {
		return WrapError(err, ErrParse, "failed to parse input file").WithContext("path", path)
	}

	batches := batch.Split(doc.Units, cfg.BatchSize, cfg.MaxBatchChars)
	translated := make([][]string, len(batches))

	for bi, b := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		lines, ok := r.loadCheckpoint(path, b)
		if !ok {
			// cancellation is checked between batches only; an in-flight
			// model call runs to completion or to the client's own timeout
			lines, err = trans.TranslateBatch(context.WithoutCancel(ctx), b.Texts())
			if err != nil {
				return WrapError(err, ErrTranslation, "batch translation failed").
					WithContext("path", path).
					WithContext("batch", bi+1)
			}
			if len(lines) != len(b.Units) {
				return NewError(ErrAlignment, fmt.Sprintf(
					"translator returned %d lines for a batch of %d", len(lines), len(b.Units)))
			}
			r.saveCheckpoint(path, b, lines)
		}
		translated[bi] = lines

		if progress != nil {
			progress(Progress{
				FilesDone:    fileIndex,
				FilesTotal:   fileCount,
				CurrentFile:  path,
				BatchesDone:  bi + 1,
				BatchesTotal: len(batches),
			})
		}
	}

	// flatten back into document order, then force script normalization
	pos := 0
	for bi := range batches {
		for ui := range batches[bi].Units {
			doc.Units[pos].TranslatedText = normalizer.Normalize(translated[bi][ui])
			pos++
		}
	}

	output, err := document.Serialize(doc)
	if err != nil {
		return WrapError(err, ErrFileWrite, "failed to serialize document").WithContext("path", path)
	}

	if err := writeAtomic(cfg.OutputPath(path), output); err != nil {
		return WrapError(err, ErrFileWrite, "failed to write output file").WithContext("path", path)
	}

	if r.checkpoints != nil {
		if err := r.checkpoints.Clear(path); err != nil {
			log.Warn("failed to clear checkpoints for %s: %v", path, err)
		}
	}

	return nil
}

func (r *Runner) loadCheckpoint(path string, b batch.Batch) ([]string, bool) {
	if r.checkpoints == nil {
		return nil, false
	}
	lines, ok := r.checkpoints.Load(path, b.Start, b.Start+len(b.Units))
	if !ok || len(lines) != len(b.Units) {
		return nil, false
	}
	return lines, true
}

func (r *Runner) saveCheckpoint(path string, b batch.Batch, lines []string) {
	if r.checkpoints == nil {
		return
	}
	if err := r.checkpoints.Save(path, b.Start, b.Start+len(b.Units), lines); err != nil {
		log.Warn("failed to save checkpoint for %s: %v", path, err)
	}
}

// writeAtomic writes via a temp file and rename so a failed run never
// leaves a half-written output behind.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

package service

import (
	"fmt"
	"path/filepath"

	"github.com/subgemma/subtrans/internal/document"
	"github.com/subgemma/subtrans/internal/style"
	"github.com/subgemma/subtrans/pkg/file"
)

// RunConfiguration is the complete, immutable description of one
// translation run. Constructed once before the run and read-only after.
type RunConfiguration struct {
	SourceLanguage string          `json:"source_language"`
	TargetLanguage string          `json:"target_language"`
	Model          string          `json:"model"`
	BatchSize      int             `json:"batch_size"`
	MaxBatchChars  int             `json:"max_batch_chars"`
	Style          style.Preset    `json:"style"`
	InputRoot      string          `json:"input_root"`
	OutputRoot     string          `json:"output_root"`
	OutputSuffix   string          `json:"output_suffix,omitempty"`
	FileType       document.Format `json:"file_type"`
}

// Validate checks the configuration before a run starts.
func (c RunConfiguration) Validate() error {
	if c.InputRoot == "" {
		return NewError(ErrValidation, "input root is required")
	}
	if c.OutputRoot == "" {
		return NewError(ErrValidation, "output root is required")
	}
	if c.InputRoot == c.OutputRoot {
		return NewError(ErrValidation, "output root must differ from input root")
	}
	if c.TargetLanguage == "" {
		return NewError(ErrValidation, "target language is required")
	}
	if c.BatchSize <= 0 {
		return NewError(ErrValidation, "batch size must be greater than 0")
	}
	switch c.FileType {
	case document.FormatSRT, document.FormatText:
	default:
		return NewError(ErrValidation, fmt.Sprintf("unsupported file type: %s", c.FileType))
	}
	return nil
}

// OutputPath maps an input file to its destination under the output root.
// The filename is kept as-is unless OutputSuffix is set, in which case the
// suffix is inserted before the extension, e.g. "_zh" for "a_zh.srt".
func (c RunConfiguration) OutputPath(inputPath string) string {
	name := filepath.Base(inputPath)
	if c.OutputSuffix != "" {
		ext := filepath.Ext(name)
		name = file.ReplaceExt(name, "") + c.OutputSuffix + ext
	}
	return filepath.Join(c.OutputRoot, name)
}

// Progress is the tuple emitted after each batch and each file.
type Progress struct {
	FilesDone    int    `json:"files_done"`
	FilesTotal   int    `json:"files_total"`
	CurrentFile  string `json:"current_file"`
	BatchesDone  int    `json:"batches_done"`
	BatchesTotal int    `json:"batches_total"`
}

// ProgressFunc consumes progress updates; nil is allowed.
type ProgressFunc func(Progress)

// FileStatus classifies a file's outcome within a run.
type FileStatus string

const (
	FileTranslated FileStatus = "translated"
	FileFailed     FileStatus = "failed"
)

// FileResult records the outcome for one input file.
type FileResult struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// RunReport summarizes a finished run.
type RunReport struct {
	Files      []FileResult `json:"files"`
	Translated int          `json:"translated"`
	Failed     int          `json:"failed"`
}

func (r *RunReport) add(result FileResult) {
	r.Files = append(r.Files, result)
	switch result.Status {
	case FileTranslated:
		r.Translated++
	case FileFailed:
		r.Failed++
	}
}

// BatchCheckpointStore lets a run skip batches it already translated in an
// earlier, interrupted attempt. Implementations are keyed per run.
type BatchCheckpointStore interface {
	Load(file string, start, end int) ([]string, bool)
	Save(file string, start, end int, translated []string) error
	Clear(file string) error
}

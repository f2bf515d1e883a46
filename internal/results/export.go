package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const outputDirTimeFormat = "2006-01-02-150405"

// Writer produces the timestamped output directory for one run and the
// files inside it.
type Writer struct {
	dir string
}

// NewWriter creates the per-run output directory under parent, named
// after the run start time.
func NewWriter(parent string, started time.Time) (*Writer, error) {
	dir := filepath.Join(parent, started.Format(outputDirTimeFormat))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the run output directory path.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteJSON writes the full per-file records document under name inside
// the run directory and returns the written path.
func (w *Writer) WriteJSON(name string, acc *Accumulator) (string, error) {
	records := acc.Records()
	if records == nil {
		records = []Record{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results json: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write results json: %w", err)
	}
	return path, nil
}

// WriteCSVs writes pixiv_id.csv, twitter_url.csv, and danbooru_id.csv
// into the run directory. Always called, regardless of whether the JSON
// document was requested.
func (w *Writer) WriteCSVs(acc *Accumulator) error {
	if err := w.writePixivCSV(acc); err != nil {
		return err
	}
	if err := w.writeTwitterCSV(acc); err != nil {
		return err
	}
	return w.writeDanbooruCSV(acc)
}

func (w *Writer) writePixivCSV(acc *Accumulator) error {
	rows := [][]string{{"id", "url", "original_filename"}}
	for _, id := range acc.Pixiv() {
		rows = append(rows, []string{
			id.Value,
			"https://www.pixiv.net/artworks/" + id.Value,
			id.File,
		})
	}
	return writeCSV(filepath.Join(w.dir, "pixiv_id.csv"), rows)
}

func (w *Writer) writeTwitterCSV(acc *Accumulator) error {
	rows := [][]string{{"url", "original_filename"}}
	for _, id := range acc.Twitter() {
		rows = append(rows, []string{id.Value, id.File})
	}
	return writeCSV(filepath.Join(w.dir, "twitter_url.csv"), rows)
}

func (w *Writer) writeDanbooruCSV(acc *Accumulator) error {
	rows := [][]string{{"id", "url", "original_url", "parent_id", "has_active_children", "original_filename"}}
	for _, id := range acc.Danbooru() {
		originalURL, parentID, hasChildren := "", "", ""
		if info, ok := acc.BoardInfo(id.Value); ok {
			originalURL = info.OriginalURL
			parentID = info.ParentID
			hasChildren = fmt.Sprintf("%t", info.HasActiveChildren)
		}
		rows = append(rows, []string{
			id.Value,
			"https://danbooru.donmai.us/posts/" + id.Value,
			originalURL,
			parentID,
			hasChildren,
			id.File,
		})
	}
	return writeCSV(filepath.Join(w.dir, "danbooru_id.csv"), rows)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

package storage

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"weibolens/pkg/errors"
	"weibolens/pkg/weibo"
)

// utf8BOM is prepended to every CSV so spreadsheet tools decode the
// non-Latin text correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header is the fixed CSV column order. Every file carries it, even when the
// session accumulated no posts.
var Header = []string{
	"id", "user_id", "screen_name", "text",
	"topics", "mentions", "media_urls", "video_url",
	"date", "source",
	"attitudes_count", "comments_count", "reposts_count",
}

const listSeparator = ","

// Manager persists crawl output as CSV files under a base directory, one
// subfolder per crawl target.
type Manager struct {
	baseDir       string
	targetFolders bool
}

// NewManager creates a storage manager rooted at baseDir.
func NewManager(baseDir string, targetFolders bool) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Newf(errors.ErrorTypePersistence, "failed to create output directory: %v", err)
	}
	return &Manager{baseDir: baseDir, targetFolders: targetFolders}, nil
}

// BaseDir returns the root output directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// PathFor returns the CSV path for a crawl target.
func (m *Manager) PathFor(target string) string {
	name := sanitizeTarget(target)
	if m.targetFolders {
		return filepath.Join(m.baseDir, name, name+".csv")
	}
	return filepath.Join(m.baseDir, name+".csv")
}

// WritePosts writes the posts to path as a BOM-prefixed CSV. The file is
// written to a temporary sibling and renamed into place so readers never see
// a partial file. Zero posts still produce a header-only file.
func (m *Manager) WritePosts(path string, posts []weibo.Post) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Newf(errors.ErrorTypePersistence, "failed to create directory for %s: %v", path, err)
	}

	tempPath := path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return errors.Newf(errors.ErrorTypePersistence, "failed to create temporary file: %v", err)
	}

	writeErr := writeCSV(out, posts)
	closeErr := out.Close()

	if writeErr != nil {
		os.Remove(tempPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return errors.Newf(errors.ErrorTypePersistence, "failed to close %s: %v", tempPath, closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Newf(errors.ErrorTypePersistence, "failed to rename temporary file: %v", err)
	}
	return nil
}

func writeCSV(out io.Writer, posts []weibo.Post) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return errors.Newf(errors.ErrorTypePersistence, "failed to write BOM: %v", err)
	}

	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return errors.Newf(errors.ErrorTypePersistence, "failed to write header: %v", err)
	}
	for _, post := range posts {
		if err := w.Write(recordFor(post)); err != nil {
			return errors.Newf(errors.ErrorTypePersistence, "failed to write row for post %s: %v", post.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Newf(errors.ErrorTypePersistence, "failed to flush CSV: %v", err)
	}
	return nil
}

func recordFor(post weibo.Post) []string {
	return []string{
		post.ID,
		post.UserID,
		post.ScreenName,
		post.Text,
		strings.Join(post.Topics, listSeparator),
		strings.Join(post.Mentions, listSeparator),
		strings.Join(post.PicURLs, listSeparator),
		post.VideoURL,
		post.CreatedAt,
		post.Source,
		strconv.Itoa(post.AttitudesCount),
		strconv.Itoa(post.CommentsCount),
		strconv.Itoa(post.RepostsCount),
	}
}

// ReadPosts loads posts back from a CSV produced by WritePosts. Columns are
// resolved by header name, so files written with an older column order still
// load. Missing or non-numeric metric fields count as zero.
func ReadPosts(path string) ([]weibo.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypePersistence, "failed to open %s: %v", path, err)
	}
	defer f.Close()

	return readCSV(f, path)
}

func readCSV(in io.Reader, name string) ([]weibo.Post, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.Newf(errors.ErrorTypePersistence, "%s has no header row", name)
	}
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypePersistence, "failed to read header of %s: %v", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	metric := func(row []string, name string) int {
		n, err := strconv.Atoi(strings.TrimSpace(field(row, name)))
		if err != nil {
			return 0
		}
		return n
	}

	var posts []weibo.Post
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypePersistence, "failed to read row of %s: %v", name, err)
		}
		posts = append(posts, weibo.Post{
			ID:             field(row, "id"),
			UserID:         field(row, "user_id"),
			ScreenName:     field(row, "screen_name"),
			Text:           field(row, "text"),
			Topics:         splitList(field(row, "topics")),
			Mentions:       splitList(field(row, "mentions")),
			PicURLs:        splitList(field(row, "media_urls")),
			VideoURL:       field(row, "video_url"),
			CreatedAt:      field(row, "date"),
			Source:         field(row, "source"),
			AttitudesCount: metric(row, "attitudes_count"),
			CommentsCount:  metric(row, "comments_count"),
			RepostsCount:   metric(row, "reposts_count"),
		})
	}
	return posts, nil
}

// ReadCorpus loads every CSV under dir (recursively) into one post list, in
// stable filename order.
func ReadCorpus(dir string) ([]weibo.Post, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypePersistence, "failed to walk %s: %v", dir, err)
	}
	sort.Strings(paths)

	var posts []weibo.Post
	for _, path := range paths {
		loaded, err := ReadPosts(path)
		if err != nil {
			return nil, err
		}
		posts = append(posts, loaded...)
	}
	return posts, nil
}

// splitList undoes the comma join used for list columns.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, listSeparator)
}

// sanitizeTarget turns a crawl target into a safe file name.
func sanitizeTarget(target string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name := strings.TrimSpace(replacer.Replace(target))
	if name == "" {
		name = "crawl"
	}
	return name
}

// Texts returns the post texts, the tokenization input for analysis.
func Texts(posts []weibo.Post) []string {
	texts := make([]string, 0, len(posts))
	for _, post := range posts {
		texts = append(texts, post.Text)
	}
	return texts
}

package exporters

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/bookclips/internal/kindle"
)

// headlineWords is how many words of a clipping make up its heading.
const headlineWords = 10

// Markdown appends clippings to one markdown file per book, named after the
// canonical id. Quotes already present in the file are not written again,
// so it is safe to run over the same export repeatedly. Writes to the same
// file are serialized; one Markdown may be shared by concurrent tasks.
type Markdown struct {
	Dir string
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMarkdown(dir string) *Markdown {
	return &Markdown{Dir: dir, now: time.Now, locks: make(map[string]*sync.Mutex)}
}

// lock returns the mutex guarding path, creating it on first use.
func (m *Markdown) lock(path string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks == nil {
		m.locks = make(map[string]*sync.Mutex)
	}
	l, ok := m.locks[path]
	if !ok {
		l = &sync.Mutex{}
		m.locks[path] = l
	}
	return l
}

func (m *Markdown) Name() string {
	return "markdown"
}

// Path returns the file an entry with the given canonical id is written to.
func (m *Markdown) Path(canonicalID string) string {
	return filepath.Join(m.Dir, canonicalID+".md")
}

type frontMatter struct {
	CanonicalID    string            `yaml:"canonical_id"`
	Title          string            `yaml:"title"`
	Authors        []string          `yaml:"authors,omitempty"`
	Year           int               `yaml:"year,omitempty"`
	ClippingsTitle string            `yaml:"clippings_title,omitempty"`
	SourceFile     string            `yaml:"source_file,omitempty"`
	CreatedAt      string            `yaml:"created_at"`
	Extra          map[string]string `yaml:"extra,omitempty"`
	Tags           []string          `yaml:"tags"`
}

func (m *Markdown) Write(ctx context.Context, entry Entry) (WriteResult, error) {
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return WriteResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	path := m.Path(entry.CanonicalID)
	l := m.lock(path)
	l.Lock()
	defer l.Unlock()

	existing, err := os.ReadFile(path)
	isNew := os.IsNotExist(err)
	if err != nil && !isNew {
		return WriteResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	seen := ExtractQuotes(existing)

	var result WriteResult
	var fresh []Item
	for _, item := range entry.Items {
		if item.Record.Kind == kindle.KindBookmark {
			continue
		}
		quote := quoteKey(item.Record.Text)
		if quote == "" {
			continue
		}
		if _, ok := seen[quote]; ok {
			result.Skipped++
			continue
		}
		seen[quote] = struct{}{}
		fresh = append(fresh, item)
	}
	if len(fresh) == 0 {
		return result, nil
	}

	var b strings.Builder
	if isNew {
		header, err := m.header(entry)
		if err != nil {
			return WriteResult{}, err
		}
		b.WriteString(header)
	}
	fmt.Fprintf(&b, "\n## Clippings added %s\n\n", m.now().Format("2006-01-02"))
	for _, item := range fresh {
		if err := ctx.Err(); err != nil {
			return WriteResult{}, err
		}
		writeItem(&b, item, entry.TextPath)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return WriteResult{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	result.Written = len(fresh)
	return result, nil
}

func (m *Markdown) header(entry Entry) (string, error) {
	fm := frontMatter{
		CanonicalID:    entry.CanonicalID,
		Title:          entry.Identity.Title,
		Authors:        entry.Identity.Authors,
		Year:           entry.Identity.Year,
		ClippingsTitle: entry.ClippingsTitle,
		SourceFile:     entry.BookPath,
		CreatedAt:      m.now().Format("2006-01-02"),
		Extra:          entry.Identity.Extra,
		Tags:           []string{"highlights", "books"},
	}
	out, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	title := entry.Identity.Title
	if title == "" {
		title = entry.ClippingsTitle
	}
	return "---\n" + string(out) + "---\n\n# " + title + "\n", nil
}

func writeItem(b *strings.Builder, item Item, textPath string) {
	r := item.Record
	text := strings.TrimSpace(r.Text)

	fmt.Fprintf(b, "### %s\n\n", upcaseFirst(headline(text)))

	if r.AddedAt != nil {
		fmt.Fprintf(b, "- added: %s\n", r.AddedAt.Format("2006-01-02 15:04"))
	}
	if r.Location != nil {
		fmt.Fprintf(b, "- location: %s\n", r.Location)
	}
	if r.Page != nil {
		fmt.Fprintf(b, "- page: %d\n", *r.Page)
	}
	if r.AddedAt != nil || r.Location != nil || r.Page != nil {
		b.WriteString("\n")
	}

	if r.Note != "" {
		fmt.Fprintf(b, "%s\n\n", upcaseFirst(r.Note))
	}
	if item.Anchor != "" && textPath != "" {
		fmt.Fprintf(b, "[Read more](%s)\n\n", AnchorLink(textPath, item.Anchor))
	}

	fmt.Fprintf(b, "%s\n\n", quoteBody(text))
}

// AnchorLink builds a file link with a text fragment pointing at anchor.
func AnchorLink(textPath, anchor string) string {
	fragment := url.QueryEscape(anchor)
	fragment = strings.ReplaceAll(fragment, "+", "%20")
	fragment = strings.ReplaceAll(fragment, "-", "%2D")
	return (&url.URL{Scheme: "file", Path: textPath}).String() + "#:~:text=" + fragment
}

func headline(text string) string {
	words := strings.Fields(text)
	if len(words) > headlineWords {
		words = words[:headlineWords]
	}
	return strings.Join(words, " ")
}

func upcaseFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

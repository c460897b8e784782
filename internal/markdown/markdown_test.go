package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/marph91/jimmy/internal/imf"
)

func TestResourceLink(t *testing.T) {
	if got := ResourceLink("pic", "./a.png", true); got != "![pic](./a.png)" {
		t.Errorf("image = %q", got)
	}
	if got := ResourceLink("doc", "./a.pdf", false); got != "[doc](./a.pdf)" {
		t.Errorf("link = %q", got)
	}
}

func TestStripVoidLinks(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a []() b", "a  b"},
		{"a ![ ]( ) b", "a  b"},
		{"- [ ] todo", "- [ ] todo"},
		{"[x](y)", "[x](y)"},
		{"[](y)", "[](y)"},
	}
	for _, tt := range tests {
		if got := StripVoidLinks(tt.in); got != tt.want {
			t.Errorf("StripVoidLinks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAppendBlock(t *testing.T) {
	if got := AppendBlock("", "x"); got != "x" {
		t.Errorf("empty body = %q", got)
	}
	if got := AppendBlock("text\n", "x"); got != "text\n\nx" {
		t.Errorf("body = %q", got)
	}
}

func sampleNote() *imf.Note {
	lat := 52.5
	return &imf.Note{
		Title:             "Trip",
		Body:              "body",
		Author:            "me",
		SourceApplication: "joplin",
		Created:           time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Latitude:          &lat,
		Tags:              []*imf.Tag{{Title: "travel"}, {Title: "new york"}},
	}
}

func TestFrontmatterJoplin(t *testing.T) {
	fm, err := Frontmatter(sampleNote(), FrontmatterJoplin)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"---\n", "title: Trip\n", "2024-03-01T10:00:00Z", "author: me\n", "latitude: 52.5\n", "  - travel\n"} {
		if !strings.Contains(fm, want) {
			t.Errorf("frontmatter missing %q:\n%s", want, fm)
		}
	}
	if strings.Contains(fm, "updated") {
		t.Errorf("zero updated time rendered:\n%s", fm)
	}
}

func TestFrontmatterQOwnNotes(t *testing.T) {
	fm, err := Frontmatter(sampleNote(), FrontmatterQOwnNotes)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fm, "tags: travel new_york\n") {
		t.Errorf("frontmatter = %q", fm)
	}
}

func TestFrontmatterObsidianEmpty(t *testing.T) {
	fm, err := Frontmatter(&imf.Note{Title: "x"}, FrontmatterObsidian)
	if err != nil {
		t.Fatal(err)
	}
	if fm != "" {
		t.Errorf("frontmatter = %q, want empty", fm)
	}
}

func TestFrontmatterUnknownStyle(t *testing.T) {
	if _, err := Frontmatter(sampleNote(), "hugo"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestApplyFrontmatter(t *testing.T) {
	note := sampleNote()
	root := &imf.Notebook{Notebooks: []*imf.Notebook{{Notes: []*imf.Note{note}}}}
	if err := ApplyFrontmatter(root, FrontmatterObsidian); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(note.Body, "---\n") || !strings.HasSuffix(note.Body, "---\n\nbody") {
		t.Errorf("body = %q", note.Body)
	}
}

func TestTemplateRender(t *testing.T) {
	tmpl := NewTemplate("# {title}\n{created:2006-01-02} {updated} by {author}\ntags: {tags}\n{unknown}\n\n{body}")
	got := tmpl.Render(sampleNote())
	want := "# Trip\n2024-03-01  by me\ntags: travel, new york\n{unknown}\n\nbody"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestTemplateApply(t *testing.T) {
	note := sampleNote()
	root := &imf.Notebook{Notes: []*imf.Note{note}}
	NewTemplate("{source_application}: {body}").Apply(root)
	if note.Body != "joplin: body" {
		t.Errorf("body = %q", note.Body)
	}
}

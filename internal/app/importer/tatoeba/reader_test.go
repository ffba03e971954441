package tatoeba

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/lines"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeFile is a test helper that creates a file with given content.
func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestReadSentences(t *testing.T) {
	t.Parallel()

	data := "1\tita\tCiao, come stai?\n" +
		"2\tita\tIo parlo italiano.\n" +
		"x\tita\tbad id\n" +
		"3\tita\n" +
		"4\teng\tHello\n" +
		"5\tita\t" + strings.Repeat("a", 30) + "\n" +
		"\n"

	got, stats, err := ReadSentences(context.Background(), strings.NewReader(data), LangItalian, 20, nil)
	if err != nil {
		t.Fatalf("ReadSentences: %v", err)
	}

	want := []domain.Sentence{
		{ID: 1, Lang: "ita", Text: "Ciao, come stai?"},
		{ID: 2, Lang: "ita", Text: "Io parlo italiano."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sentences mismatch (-want +got):\n%s", diff)
	}
	wantMalformed := map[string]int{ReasonInvalidID: 1, ReasonFieldCount: 1}
	if diff := cmp.Diff(wantMalformed, stats.Malformed); diff != "" {
		t.Errorf("malformed mismatch (-want +got):\n%s", diff)
	}
	if stats.OtherLang != 1 || stats.SkippedLong != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReadSentences_LineTooLong(t *testing.T) {
	t.Parallel()

	data := "1\tita\t" + strings.Repeat("a", maxSentenceLine) + "\n" + "2\tita\tCiao.\n"
	got, stats, err := ReadSentences(context.Background(), strings.NewReader(data), LangItalian, 0, nil)
	if err != nil {
		t.Fatalf("ReadSentences: %v", err)
	}
	if diff := cmp.Diff([]domain.Sentence{{ID: 2, Lang: "ita", Text: "Ciao."}}, got); diff != "" {
		t.Errorf("sentences mismatch (-want +got):\n%s", diff)
	}
	if stats.Malformed[lines.ReasonTooLong] != 1 {
		t.Errorf("malformed = %v, want one %s", stats.Malformed, lines.ReasonTooLong)
	}
}

func TestReadLinks_LineTooLong(t *testing.T) {
	t.Parallel()

	data := "1\t" + strings.Repeat("9", maxLinkLine) + "\n" + "1\t10\n"
	got, stats, err := ReadLinks(context.Background(), strings.NewReader(data), func(int64, int64) bool { return true }, nil)
	if err != nil {
		t.Fatalf("ReadLinks: %v", err)
	}
	if diff := cmp.Diff([]domain.TranslationLink{{SourceID: 1, TargetID: 10}}, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if stats.TotalLines != 2 || stats.Malformed[lines.ReasonTooLong] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReadLinks(t *testing.T) {
	t.Parallel()

	data := "1\t10\n1\t11\n2\t12\nbad\n3\tx\n"
	got, stats, err := ReadLinks(context.Background(), strings.NewReader(data), func(src, dst int64) bool {
		return src == 1
	}, nil)
	if err != nil {
		t.Fatalf("ReadLinks: %v", err)
	}

	want := []domain.TranslationLink{{SourceID: 1, TargetID: 10}, {SourceID: 1, TargetID: 11}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if stats.MalformedLines != 2 {
		t.Errorf("MalformedLines = %d, want 2", stats.MalformedLines)
	}
}

func writeCorpus(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	p := Paths{
		Italian: filepath.Join(dir, "ita_sentences.tsv"),
		English: filepath.Join(dir, "eng_sentences.tsv"),
		Links:   filepath.Join(dir, "links.csv"),
	}
	files := map[string]string{
		p.Italian: "1\tita\tIo parlo.\n2\tita\tLei va a casa.\n",
		p.English: "10\teng\tI speak.\n11\teng\tShe goes home.\n12\teng\tUnrelated.\n",
		// 20 is not an English sentence we have; 12 -> 1 is the reverse direction.
		p.Links: "1\t10\n2\t11\n2\t20\n12\t1\n1\t10\n",
	}
	for path, content := range files {
		if err := writeFile(path, content); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func TestLoad(t *testing.T) {
	t.Parallel()

	c, err := Load(context.Background(), writeCorpus(t), 0, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(c.Italian) != 2 {
		t.Errorf("Italian = %d, want 2", len(c.Italian))
	}
	wantEnglish := []domain.Sentence{
		{ID: 10, Lang: "eng", Text: "I speak."},
		{ID: 11, Lang: "eng", Text: "She goes home."},
	}
	if diff := cmp.Diff(wantEnglish, c.English); diff != "" {
		t.Errorf("English mismatch (-want +got):\n%s", diff)
	}
	wantLinks := []domain.TranslationLink{
		{SourceID: 1, TargetID: 10},
		{SourceID: 2, TargetID: 11},
		{SourceID: 1, TargetID: 10},
	}
	if diff := cmp.Diff(wantLinks, c.Links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	p := writeCorpus(t)
	p.English = filepath.Join(t.TempDir(), "missing.tsv")
	if _, err := Load(context.Background(), p, 0, nil); err == nil {
		t.Fatal("expected error for missing English file")
	}
}

func TestLoad_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := writeCorpus(t)
	p.Links = filepath.Join(t.TempDir(), "missing.csv")
	if _, err := Load(ctx, p, 0, nil); err == nil {
		t.Fatal("expected error")
	}
}

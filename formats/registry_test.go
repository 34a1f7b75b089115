package formats

import (
	"errors"
	"testing"
)

func TestListTargetsNeverContainsSource(t *testing.T) {
	r := NewRegistry()
	for _, category := range r.Categories() {
		for _, rule := range r.Rules(category) {
			for _, target := range r.ListTargets(category, rule.Source) {
				if target.ID == rule.Source {
					t.Errorf("%s: ListTargets(%q) contains the source itself", category, rule.Source)
				}
			}
		}
	}
}

func TestIsSupportedMatchesListTargets(t *testing.T) {
	r := NewRegistry()
	for _, category := range r.Categories() {
		for _, source := range descriptors {
			listed := make(map[string]bool)
			for _, target := range r.ListTargets(category, source.ID) {
				listed[target.ID] = true
			}
			for _, target := range descriptors {
				got := r.IsSupported(category, source.ID, target.ID)
				if got != listed[target.ID] {
					t.Errorf("%s %s->%s: IsSupported=%v but ListTargets membership=%v",
						category, source.ID, target.ID, got, listed[target.ID])
				}
			}
		}
	}
}

func TestDocumentTargetsForPDF(t *testing.T) {
	r := NewRegistry()
	targets := r.ListTargets(CategoryDocument, "pdf")
	want := []string{"docx", "xlsx"}
	if len(targets) != len(want) {
		t.Fatalf("Expected %d targets, got %d", len(want), len(targets))
	}
	for i, id := range want {
		if targets[i].ID != id {
			t.Errorf("Target %d: expected %q, got %q", i, id, targets[i].ID)
		}
	}
}

func TestPresentationAndBookConvertOneWay(t *testing.T) {
	r := NewRegistry()
	for _, source := range []string{"pptx", "epub"} {
		targets := r.ListTargets(CategoryDocument, source)
		if len(targets) != 1 || targets[0].ID != "pdf" {
			t.Errorf("%s: expected pdf as the only target, got %+v", source, targets)
		}
		if r.IsSupported(CategoryDocument, "pdf", source) {
			t.Errorf("pdf->%s must not be supported", source)
		}
	}
}

func TestDescribeUnknownFormat(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Describe("tiff"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Expected ErrUnknownFormat, got %v", err)
	}
	f, err := r.Describe("png")
	if err != nil {
		t.Fatalf("Describe(png) failed: %v", err)
	}
	if f.MIMEType != "image/png" || f.Category != CategoryImage {
		t.Errorf("Unexpected descriptor: %+v", f)
	}
}

func TestAudioQualityMatrix(t *testing.T) {
	r := NewRegistry()
	lossless := map[string]bool{"wav": true, "flac": true}
	valid := map[Quality]bool{
		QualityMaintained:    true,
		QualityLossless:      true,
		QualityReduced:       true,
		QualityNoImprovement: true,
	}

	rules := r.Rules(CategoryAudio)
	if len(rules) != 20 {
		t.Fatalf("Expected all 20 audio pairs populated explicitly, got %d", len(rules))
	}
	for _, rule := range rules {
		quality, ok := r.QualityFor(rule.Source, rule.Target)
		if !ok {
			t.Errorf("%s->%s: missing quality annotation", rule.Source, rule.Target)
			continue
		}
		if !valid[quality] {
			t.Errorf("%s->%s: invalid quality %q", rule.Source, rule.Target, quality)
		}

		var want Quality
		switch {
		case lossless[rule.Source] && lossless[rule.Target]:
			want = QualityLossless
		case lossless[rule.Source] && !lossless[rule.Target]:
			want = QualityReduced
		case !lossless[rule.Source] && lossless[rule.Target]:
			want = QualityNoImprovement
		default:
			want = QualityMaintained
		}
		if quality != want {
			t.Errorf("%s->%s: quality %q inconsistent with endpoint classification, want %q",
				rule.Source, rule.Target, quality, want)
		}
	}
}

func TestFormatFromExtension(t *testing.T) {
	f, err := FormatFromExtension("photo.JPEG")
	if err != nil {
		t.Fatalf("FormatFromExtension failed: %v", err)
	}
	if f.ID != "jpg" {
		t.Errorf("Expected jpg, got %q", f.ID)
	}

	f, err = FormatFromExtension("config.yml")
	if err != nil {
		t.Fatalf("FormatFromExtension failed: %v", err)
	}
	if f.ID != "yaml" {
		t.Errorf("Expected yaml, got %q", f.ID)
	}

	if _, err := FormatFromExtension("archive.tar"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:               "0 Bytes",
		512:             "512 Bytes",
		2 * 1024 * 1024: "2 MB",
		1536:            "1.50 KB",
	}
	for bytes, want := range cases {
		if got := FormatFileSize(bytes); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", bytes, got, want)
		}
	}
}

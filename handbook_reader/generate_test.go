package handbook_reader

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestProcessEndToEnd(t *testing.T) {
	restore := now
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { now = restore }()

	text := "Attendance of at least 75 percent is compulsory for every enrolled student. " +
		"Leave applications must follow the attendance policy published by the office.\n\n" +
		"The annual tuition fee is payable before the semester begins. Scholarship and " +
		"refund requests follow the payment schedule of the accounts department."

	reader := New(Config{})
	result, err := reader.Process(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Sections) != len(Categories) {
		t.Fatalf("sections = %d, want %d", len(result.Sections), len(Categories))
	}

	att := result.Sections[CategoryAttendancePolicies]
	if att.Content == "" {
		t.Error("attendance section empty, expected categorized content")
	}
	if att.Metadata.QualityScore <= 0 || att.Metadata.QualityScore > 100 {
		t.Errorf("quality score = %v, want (0, 100]", att.Metadata.QualityScore)
	}
	if att.ContentHash == "" || len(att.ContentHash) != 16 {
		t.Errorf("content hash = %q, want 16 hex chars", att.ContentHash)
	}
	if att.SearchableText == "" {
		t.Error("searchable text empty")
	}
	if !strings.Contains(att.SearchableText, att.Title) {
		t.Error("searchable text must include the title")
	}

	fee := result.Sections[CategoryFeeStructure]
	if fee.Content == "" {
		t.Error("fee section empty, expected categorized content")
	}

	// A category the text never mentioned keeps the placeholder shape.
	disc := result.Sections[CategoryDisciplinaryRules]
	if disc.Content != "" {
		t.Errorf("disciplinary content = %q, want empty", disc.Content)
	}
	if disc.Summary != emptySummary {
		t.Errorf("placeholder summary = %q", disc.Summary)
	}
	if disc.Metadata.WordCount != 0 || disc.Metadata.QualityScore != 0 {
		t.Error("placeholder section must carry zero metadata")
	}
	if disc.Metadata.LastUpdated == "" {
		t.Error("placeholder section still carries a timestamp")
	}

	if result.ProcessingInfo.TotalCategories != len(Categories) {
		t.Errorf("total categories = %d", result.ProcessingInfo.TotalCategories)
	}
	if result.ProcessingInfo.CategoriesWithContent == 0 {
		t.Error("expected some categories with content")
	}

	// Two short paragraphs cannot meet the 200-word minimum anywhere, so
	// completeness is 0 and the review recommendation fires.
	sum := result.ProcessingSummary
	if sum.OverallCompleteness != 0 {
		t.Errorf("completeness = %v, want 0", sum.OverallCompleteness)
	}
	if len(sum.ProcessingRecommendations) == 0 {
		t.Error("expected processing recommendations for incomplete coverage")
	}
	if sum.TotalWordsExtracted == 0 {
		t.Error("total words extracted = 0")
	}
}

func TestProcessEmptyText(t *testing.T) {
	reader := New(Config{})
	result, err := reader.Process(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	if result.ProcessingInfo.CategoriesWithContent != 0 {
		t.Errorf("categories with content = %d, want 0", result.ProcessingInfo.CategoriesWithContent)
	}
	for _, category := range Categories {
		if result.Sections[category].Summary != emptySummary {
			t.Errorf("category %s missing placeholder summary", category)
		}
	}

	report := Validate(result)
	if !report.IsValid {
		t.Error("all-placeholder result is structurally valid")
	}
	if len(report.EmptyCategories) != len(Categories) {
		t.Errorf("empty categories = %d, want %d", len(report.EmptyCategories), len(Categories))
	}
	if len(report.Warnings) == 0 {
		t.Error("expected empty-category warning")
	}
}

func TestValidateMissingCategory(t *testing.T) {
	reader := New(Config{})
	result, err := reader.Process(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	delete(result.Sections, CategoryFeeStructure)

	report := Validate(result)
	if report.IsValid {
		t.Error("missing category must invalidate the result")
	}
	if len(report.Errors) != 1 {
		t.Errorf("errors = %v, want exactly one", report.Errors)
	}
}

func TestGenerateSummary(t *testing.T) {
	content := "Students must register before the deadline. Tiny. " +
		"Late registration attracts a penalty as described in the fee schedule. " +
		"Further details are available from the administrative office on request."

	summary := generateSummary(content, 300)
	if !strings.HasSuffix(summary, ".") {
		t.Errorf("summary must end with a period: %q", summary)
	}
	if strings.Contains(summary, "Tiny") {
		t.Error("short fragments must be skipped")
	}
	if len(summary) > 300+2 {
		t.Errorf("summary length %d exceeds cap", len(summary))
	}
}

func TestGenerateSummaryCap(t *testing.T) {
	long := strings.Repeat("This particular sentence is long enough to count toward the running summary total. ", 20)
	summary := generateSummary(long, 300)
	if len(summary) > 400 {
		t.Errorf("summary length %d, expected the cap to stop accumulation", len(summary))
	}
}

func TestExtractKeyPoints(t *testing.T) {
	content := "Every student must carry the identity card at all times. " +
		"The campus has several gardens. " +
		"Prior permission is required for any outside event participation. " +
		"Lunch is served at noon."

	points := extractKeyPoints(content, 5)
	if len(points) != 2 {
		t.Fatalf("key points = %v, want the two importance-flagged sentences", points)
	}
	for _, p := range points {
		if !strings.HasSuffix(p, ".") {
			t.Errorf("key point missing period: %q", p)
		}
	}
}

func TestExtractKeyPointsFallback(t *testing.T) {
	content := "The campus gardens are open through the day for everyone. " +
		"A second plain statement about the campus layout sits here."

	points := extractKeyPoints(content, 5)
	if len(points) == 0 {
		t.Fatal("fallback must pick substantial sentences when no keyword matches")
	}
}

func TestExtractKeyPointsCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString("Students must observe this particular numbered rule carefully. ")
	}
	points := extractKeyPoints(sb.String(), 5)
	if len(points) > 5 {
		t.Errorf("key points = %d, want at most 5", len(points))
	}
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash("the same content")
	b := ContentHash("the same content")
	c := ContentHash("different content")
	if a != b {
		t.Error("hash must be deterministic")
	}
	if a == c {
		t.Error("different content must hash differently")
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16", len(a))
	}
}

func TestQualityScoreBounds(t *testing.T) {
	cfg := Config{}.defaults()

	if got := qualityScore("", 0, 5, cfg); got != 0 {
		t.Errorf("zero words: score = %v, want 0", got)
	}

	// Huge confidence clamps at 100.
	long := strings.Repeat("A full sentence with several words sits right here. ", 50)
	if got := qualityScore(long, 400, 50, cfg); got != 100 {
		t.Errorf("clamped score = %v, want 100", got)
	}

	// Volume and sentence bonuses apply at the documented thresholds.
	got := qualityScore(long, 400, 0.5, cfg)
	want := 0.5*10 + 20 + 10
	if got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestCategoryParseAndTitle(t *testing.T) {
	c, ok := ParseCategory("fee_structure")
	if !ok || c != CategoryFeeStructure {
		t.Fatalf("ParseCategory failed: %v %v", c, ok)
	}
	if _, ok := ParseCategory("no_such_category"); ok {
		t.Error("unknown category must not parse")
	}
	if CategoryFeeStructure.Title() != "Fee Structure and Financial Information" {
		t.Errorf("title = %q", CategoryFeeStructure.Title())
	}
	if len(Categories) != 12 {
		t.Errorf("categories = %d, want 12", len(Categories))
	}
}

package handbook_reader

import (
	"context"
	"testing"
)

func TestCategorizeChunkAttendance(t *testing.T) {
	chunk := "Attendance of at least 75 percent is compulsory for all students. " +
		"Leave requests must follow the attendance policy of the college."

	cat := NewCategorizer(Config{})
	matches := cat.CategorizeChunk(chunk)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Category != CategoryAttendancePolicies {
		t.Errorf("top category = %s, want attendance_policies", matches[0].Category)
	}
	if matches[0].Confidence <= 0 {
		t.Errorf("confidence = %v, want > 0", matches[0].Confidence)
	}

	found := false
	for _, kw := range matches[0].Keywords {
		if kw == "attendance" {
			found = true
		}
	}
	if !found {
		t.Errorf("keywords = %v, want attendance included", matches[0].Keywords)
	}
}

func TestCategorizeChunkTopThreeBound(t *testing.T) {
	// Keywords from many categories at once.
	chunk := "The examination assessment and evaluation rules cover the semester " +
		"schedule calendar fee structure library hostel course credit attendance " +
		"grading conduct and graduation degree requirements of the institution."

	cat := NewCategorizer(Config{})
	matches := cat.CategorizeChunk(chunk)
	if len(matches) > 3 {
		t.Errorf("matches = %d, want at most 3", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Confidence > matches[i-1].Confidence {
			t.Errorf("matches not sorted by confidence: %v", matches)
		}
	}
}

func TestCategorizeChunkTieBreakOrder(t *testing.T) {
	// "vacation" is a keyword for both semester_structure and
	// academic_calendar; with no other signal both score identically and
	// declaration order decides.
	chunk := "The vacation weeks are announced separately before the session begins."

	cat := NewCategorizer(Config{})
	matches := cat.CategorizeChunk(chunk)
	if len(matches) < 2 {
		t.Fatalf("matches = %v, want 2 tied categories", matches)
	}
	if matches[0].Confidence != matches[1].Confidence {
		t.Fatalf("expected a tie, got %v vs %v", matches[0].Confidence, matches[1].Confidence)
	}
	if matches[0].Category != CategorySemesterStructure || matches[1].Category != CategoryAcademicCalendar {
		t.Errorf("tie order = [%s %s], want [semester_structure academic_calendar]",
			matches[0].Category, matches[1].Category)
	}
}

func TestCategorizeChunkNoSignal(t *testing.T) {
	cat := NewCategorizer(Config{})
	matches := cat.CategorizeChunk("zzz qqq xxx completely unrelated noise tokens")
	if len(matches) != 0 {
		t.Errorf("matches = %v, want none", matches)
	}
}

func TestCategorizeParallelMatchesSequential(t *testing.T) {
	text := "Attendance of at least 75 percent is compulsory for every enrolled student.\n\n" +
		"The annual tuition fee is payable in two equal parts before the semester begins.\n\n" +
		"Library and hostel usage rules are posted at the facility entrance for reference."

	seq := NewCategorizer(Config{Parallelism: 0})
	par := NewCategorizer(Config{Parallelism: 4})

	ctx := context.Background()
	seqChunks, seqMatches, err := seq.Categorize(ctx, text)
	if err != nil {
		t.Fatal(err)
	}
	parChunks, parMatches, err := par.Categorize(ctx, text)
	if err != nil {
		t.Fatal(err)
	}

	if len(seqChunks) != len(parChunks) {
		t.Fatalf("chunk counts differ: %d vs %d", len(seqChunks), len(parChunks))
	}
	for i := range seqMatches {
		if len(seqMatches[i]) != len(parMatches[i]) {
			t.Fatalf("chunk %d match counts differ", i)
		}
		for j := range seqMatches[i] {
			if seqMatches[i][j].Category != parMatches[i][j].Category {
				t.Errorf("chunk %d match %d differs: %s vs %s",
					i, j, seqMatches[i][j].Category, parMatches[i][j].Category)
			}
		}
	}
}

func TestCategorizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat := NewCategorizer(Config{})
	_, _, err := cat.Categorize(ctx, "Attendance rules require every student to be present for most lectures.")
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestKeywordScore(t *testing.T) {
	// "fee fee tuition" in a 6 word text: 3 hits, 2 distinct keywords.
	text := "the fee and fee tuition amount"
	score, matched := keywordScore(text, categoryKeywords[CategoryFeeStructure])
	want := float64(3*2) / 6
	if score != want {
		t.Errorf("score = %v, want %v", score, want)
	}
	if len(matched) != 2 {
		t.Errorf("matched = %v, want [fee tuition]", matched)
	}
}

func TestKeywordScoreWordBoundary(t *testing.T) {
	// "fees" must not count as "fee".
	score, matched := keywordScore("all fees waived", []string{"fee"})
	if score != 0 || len(matched) != 0 {
		t.Errorf("score = %v matched = %v, want no partial-word hit", score, matched)
	}
}

func TestContextScore(t *testing.T) {
	got := contextScore("the attendance policy requires minimum attendance throughout", CategoryAttendancePolicies)
	// "attendance.*policy" and "minimum.*attendance" both match once.
	if got != 4 {
		t.Errorf("context score = %v, want 4", got)
	}
}

func TestPreprocess(t *testing.T) {
	got := preprocess("See Page 12 for Details!  Extra   spacing here")
	// Page-marker removal runs after whitespace collapse, leaving a double space.
	if got != "see  for details! extra spacing here" {
		t.Errorf("preprocess = %q", got)
	}
}

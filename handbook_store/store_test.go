package handbook_store

import (
	"context"
	"errors"
	"testing"

	"github.com/siddu015/Camply/dbopen"
	"github.com/siddu015/Camply/handbook_reader"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(Schema)))
}

func testHandbook(id string) *Handbook {
	return &Handbook{
		HandbookID:       id,
		UserID:           "user-1",
		AcademicID:       "acad-1",
		StoragePath:      "handbooks/user-1/" + id + ".pdf",
		OriginalFilename: "handbook.pdf",
		FileSizeBytes:    4096,
	}
}

func processedResult(t *testing.T) *handbook_reader.Result {
	t.Helper()
	text := "Attendance of at least 75 percent is compulsory for every enrolled student. " +
		"Leave applications must follow the attendance policy published by the office.\n\n" +
		"The annual tuition fee is payable before the semester begins. Scholarship and " +
		"refund requests follow the payment schedule of the accounts department."

	result, err := handbook_reader.New(handbook_reader.Config{}).Process(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	h := testHandbook("hb-1")
	if err := s.CreateHandbook(h); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetHandbook("hb-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("handbook not found")
	}
	if got.ProcessingStatus != StatusUploaded {
		t.Errorf("status = %s, want uploaded", got.ProcessingStatus)
	}
	if got.UploadDate == "" {
		t.Error("upload date unset")
	}
	if got.StoragePath != h.StoragePath {
		t.Errorf("storage path = %q", got.StoragePath)
	}

	missing, err := s.GetHandbook("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("expected nil for unknown handbook")
	}
}

func TestFindByUserAndPathDedup(t *testing.T) {
	s := newTestStore(t)

	h := testHandbook("hb-1")
	if err := s.CreateHandbook(h); err != nil {
		t.Fatal(err)
	}

	found, err := s.FindByUserAndPath("user-1", h.StoragePath)
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.HandbookID != "hb-1" {
		t.Fatalf("dedup lookup failed: %+v", found)
	}

	// Same path for a second user is a distinct handbook.
	other, err := s.FindByUserAndPath("user-2", h.StoragePath)
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Error("different user must not collide")
	}

	// Duplicate registration by the same user is rejected by the index.
	dup := testHandbook("hb-2")
	dup.StoragePath = h.StoragePath
	if err := s.CreateHandbook(dup); err == nil {
		t.Error("expected unique constraint violation")
	}
}

func TestStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}

	// uploaded -> processing.
	if err := s.CASStatus("hb-1", StatusUploaded, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetHandbook("hb-1")
	if got.ProcessingStatus != StatusProcessing {
		t.Fatalf("status = %s", got.ProcessingStatus)
	}
	if got.ProcessingStartedAt == "" {
		t.Error("processing_started_at unset")
	}

	// Second writer loses the race.
	err := s.CASStatus("hb-1", StatusUploaded, StatusProcessing)
	if !errors.Is(err, ErrStatusConflict) {
		t.Errorf("err = %v, want ErrStatusConflict", err)
	}

	// processing -> failed, then retry failed -> processing.
	if err := s.CASStatus("hb-1", StatusProcessing, StatusFailed); err != nil {
		t.Fatal(err)
	}
	if err := s.SetError("hb-1", "download failed"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetHandbook("hb-1")
	if got.ErrorMessage != "download failed" {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
	if got.ProcessedDate != "" {
		t.Errorf("processed_date = %q on failure, must only be set on completion", got.ProcessedDate)
	}

	if err := s.CASStatus("hb-1", StatusFailed, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetHandbook("hb-1")
	if got.ErrorMessage != "" {
		t.Error("retry must clear the previous error message")
	}
}

func TestInvalidTransitions(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}

	cases := []struct{ from, to ProcessingStatus }{
		{StatusUploaded, StatusCompleted},
		{StatusUploaded, StatusFailed},
		{StatusCompleted, StatusProcessing},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusCompleted},
		{StatusProcessing, StatusUploaded},
	}
	for _, tc := range cases {
		if err := s.CASStatus("hb-1", tc.from, tc.to); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: err = %v, want ErrInvalidTransition", tc.from, tc.to, err)
		}
	}
}

func TestStoreProcessedAtomic(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}

	result := processedResult(t)

	// Not yet in processing: the single-statement guard refuses.
	if err := s.StoreProcessed("hb-1", result); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}

	if err := s.CASStatus("hb-1", StatusUploaded, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := s.StoreProcessed("hb-1", result); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetHandbook("hb-1")
	if got.ProcessingStatus != StatusCompleted {
		t.Fatalf("status = %s, want completed", got.ProcessingStatus)
	}
	if got.ProcessedDate == "" {
		t.Error("processed_date unset")
	}

	// Every category column is populated, placeholders included.
	for _, category := range handbook_reader.Categories {
		section, err := s.GetSection("hb-1", category)
		if err != nil {
			t.Fatal(err)
		}
		if section == nil {
			t.Fatalf("category %s missing after completion", category)
		}
		if section.Title == "" {
			t.Errorf("category %s has no title", category)
		}
	}

	att, _ := s.GetSection("hb-1", handbook_reader.CategoryAttendancePolicies)
	if att.Content == "" {
		t.Error("attendance section stored empty")
	}
}

func TestGetSectionUnknownCategory(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSection("hb-1", "users; DROP TABLE user_handbooks"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestGetSectionBeforeProcessing(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}
	section, err := s.GetSection("hb-1", handbook_reader.CategoryFeeStructure)
	if err != nil {
		t.Fatal(err)
	}
	if section != nil {
		t.Error("expected nil section before processing completes")
	}
}

func TestSearchRanking(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.CASStatus("hb-1", StatusUploaded, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := s.StoreProcessed("hb-1", processedResult(t)); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search("hb-1", "attendance", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected search hits for attendance")
	}
	if results[0].Category != string(handbook_reader.CategoryAttendancePolicies) {
		t.Errorf("top hit = %s, want attendance_policies", results[0].Category)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not sorted by score")
		}
	}

	none, err := s.Search("hb-1", "zzzznotpresent", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("results = %v, want none", none)
	}

	missing, err := s.Search("other", "attendance", 5)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("unknown handbook must return nil results")
	}
}

func TestSearchWholeWordCredit(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.CASStatus("hb-1", StatusUploaded, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := s.StoreProcessed("hb-1", processedResult(t)); err != nil {
		t.Fatal(err)
	}

	scoreFor := func(query string) float64 {
		t.Helper()
		results, err := s.Search("hb-1", query, 12)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range results {
			if r.Category == string(handbook_reader.CategoryAttendancePolicies) {
				return r.Score
			}
		}
		t.Fatalf("no attendance hit for %q", query)
		return 0
	}

	// A truncated prefix still earns phrase credit as a substring, but only
	// the whole word earns the per-word bonus.
	whole := scoreFor("attendance")
	truncated := scoreFor("attendanc")
	if whole <= truncated {
		t.Errorf("score(attendance) = %v, score(attendanc) = %v, whole word must rank higher", whole, truncated)
	}
}

func TestHandbookStats(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.CASStatus("hb-1", StatusUploaded, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := s.StoreProcessed("hb-1", processedResult(t)); err != nil {
		t.Fatal(err)
	}

	st, err := s.HandbookStats("hb-1")
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		t.Fatal("expected statistics for a completed handbook")
	}
	if st.TotalCategories != 12 || len(st.CategoryBreakdown) != 12 {
		t.Fatalf("breakdown covers %d/%d categories", len(st.CategoryBreakdown), st.TotalCategories)
	}
	if st.CategoriesWithContent < 2 {
		t.Errorf("categories with content = %d, want at least attendance and fees", st.CategoriesWithContent)
	}

	att := st.CategoryBreakdown[string(handbook_reader.CategoryAttendancePolicies)]
	if !att.HasContent || att.WordCount == 0 {
		t.Errorf("attendance stats = %+v", att)
	}
	disc := st.CategoryBreakdown[string(handbook_reader.CategoryDisciplinaryRules)]
	if disc.HasContent {
		t.Errorf("disciplinary stats = %+v, want empty", disc)
	}

	want := round1(float64(st.CategoriesWithContent) / 12 * 100)
	if st.ContentCompleteness != want {
		t.Errorf("completeness = %v, want %v", st.ContentCompleteness, want)
	}
	if st.CategoriesWithContent > 0 && st.AverageQualityScore <= 0 {
		t.Errorf("average quality = %v", st.AverageQualityScore)
	}

	missing, err := s.HandbookStats("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("unknown handbook must return nil statistics")
	}
}

func TestRecoverStale(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"hb-1", "hb-2", "hb-3"} {
		h := testHandbook(id)
		h.StoragePath = "handbooks/" + id + ".pdf"
		if err := s.CreateHandbook(h); err != nil {
			t.Fatal(err)
		}
	}
	s.CASStatus("hb-1", StatusUploaded, StatusProcessing)
	s.CASStatus("hb-2", StatusUploaded, StatusProcessing)

	n, err := s.RecoverStale()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("recovered = %d, want 2", n)
	}

	got, _ := s.GetHandbook("hb-1")
	if got.ProcessingStatus != StatusFailed {
		t.Errorf("status = %s, want failed", got.ProcessingStatus)
	}
	if got.ErrorMessage == "" {
		t.Error("stale recovery must record an error message")
	}
	if got.ProcessedDate != "" {
		t.Errorf("processed_date = %q after recovery, must only be set on completion", got.ProcessedDate)
	}

	// Untouched row stays uploaded.
	got, _ = s.GetHandbook("hb-3")
	if got.ProcessingStatus != StatusUploaded {
		t.Errorf("status = %s, want uploaded", got.ProcessingStatus)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	for i, id := range []string{"hb-1", "hb-2", "hb-3"} {
		h := testHandbook(id)
		h.StoragePath = "handbooks/" + id + ".pdf"
		if err := s.CreateHandbook(h); err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			s.CASStatus(id, StatusUploaded, StatusProcessing)
		}
	}
	s.CASStatus("hb-3", StatusProcessing, StatusFailed)

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 3 || st.Uploaded != 1 || st.Processing != 1 || st.Failed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestListByStatusAndDelete(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateHandbook(testHandbook("hb-1")); err != nil {
		t.Fatal(err)
	}

	ids, err := s.ListByStatus(StatusUploaded)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "hb-1" {
		t.Errorf("ids = %v", ids)
	}

	if err := s.DeleteHandbook("hb-1"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetHandbook("hb-1")
	if got != nil {
		t.Error("handbook still present after delete")
	}
}

package handbook_reader

import "regexp"

// Category identifies one of the fixed knowledge sections a handbook is
// decomposed into. The set is closed: every processed handbook carries a
// record for each category, empty or not.
type Category string

const (
	CategoryBasicInfo              Category = "basic_info"
	CategorySemesterStructure      Category = "semester_structure"
	CategoryExaminationRules       Category = "examination_rules"
	CategoryEvaluationCriteria     Category = "evaluation_criteria"
	CategoryAttendancePolicies     Category = "attendance_policies"
	CategoryAcademicCalendar       Category = "academic_calendar"
	CategoryCourseDetails          Category = "course_details"
	CategoryAssessmentMethods      Category = "assessment_methods"
	CategoryDisciplinaryRules      Category = "disciplinary_rules"
	CategoryGraduationRequirements Category = "graduation_requirements"
	CategoryFeeStructure           Category = "fee_structure"
	CategoryFacilitiesRules        Category = "facilities_rules"
)

// Categories lists all categories in declaration order. Scoring ties are
// broken by this order, so it must stay stable.
var Categories = []Category{
	CategoryBasicInfo,
	CategorySemesterStructure,
	CategoryExaminationRules,
	CategoryEvaluationCriteria,
	CategoryAttendancePolicies,
	CategoryAcademicCalendar,
	CategoryCourseDetails,
	CategoryAssessmentMethods,
	CategoryDisciplinaryRules,
	CategoryGraduationRequirements,
	CategoryFeeStructure,
	CategoryFacilitiesRules,
}

// ParseCategory validates a category name from an external caller.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryKeywords[c]
	return c, ok
}

// Title returns the human-readable section title.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

var categoryTitles = map[Category]string{
	CategoryBasicInfo:              "Basic Information",
	CategorySemesterStructure:      "Semester Structure",
	CategoryExaminationRules:       "Examination Rules and Procedures",
	CategoryEvaluationCriteria:     "Evaluation and Grading Criteria",
	CategoryAttendancePolicies:     "Attendance Policies",
	CategoryAcademicCalendar:       "Academic Calendar",
	CategoryCourseDetails:          "Course Details and Curriculum",
	CategoryAssessmentMethods:      "Assessment Methods",
	CategoryDisciplinaryRules:      "Disciplinary Rules and Conduct",
	CategoryGraduationRequirements: "Graduation Requirements",
	CategoryFeeStructure:           "Fee Structure and Financial Information",
	CategoryFacilitiesRules:        "Facilities and Infrastructure Rules",
}

// categoryKeywords drives the keyword component of chunk scoring. Keywords
// are matched as whole words against lowercased, preprocessed text.
var categoryKeywords = map[Category][]string{
	CategoryBasicInfo: {
		"institution", "college", "university", "contact", "address", "phone",
		"email", "website", "established", "founded", "mission", "vision",
		"about", "overview", "general information", "introduction",
	},
	CategorySemesterStructure: {
		"semester", "academic year", "term", "schedule", "calendar",
		"duration", "break", "vacation", "structure", "system",
	},
	CategoryExaminationRules: {
		"examination", "exam", "test", "assessment", "evaluation",
		"rules", "procedure", "conduct", "malpractice", "cheating",
	},
	CategoryEvaluationCriteria: {
		"grading", "marking", "assessment", "evaluation", "criteria",
		"scale", "points", "percentage", "grade", "mark",
	},
	CategoryAttendancePolicies: {
		"attendance", "presence", "absence", "leave", "policy",
		"requirement", "minimum", "percentage", "compulsory",
	},
	CategoryAcademicCalendar: {
		"calendar", "dates", "schedule", "timeline", "deadline",
		"important dates", "events", "holidays", "vacation",
	},
	CategoryCourseDetails: {
		"course", "subject", "syllabus", "curriculum", "program",
		"module", "unit", "credit", "prerequisite", "elective",
	},
	CategoryAssessmentMethods: {
		"assessment", "test", "assignment", "project", "practical",
		"lab", "viva", "presentation", "internal", "external",
	},
	CategoryDisciplinaryRules: {
		"discipline", "conduct", "behavior", "rules", "regulations",
		"violation", "punishment", "penalty", "suspension", "ragging",
	},
	CategoryGraduationRequirements: {
		"graduation", "degree", "diploma", "certificate", "completion",
		"requirement", "criteria", "eligibility", "minimum",
	},
	CategoryFeeStructure: {
		"fee", "fees", "tuition", "cost", "payment", "scholarship",
		"financial", "installment", "refund", "due date",
	},
	CategoryFacilitiesRules: {
		"library", "hostel", "cafeteria", "laboratory", "computer",
		"facility", "infrastructure", "equipment", "rules", "usage",
	},
}

// categoryPatterns drives the context component of chunk scoring. Each
// pattern match contributes two points before the 0.5 blend weight.
var categoryPatterns = map[Category][]*regexp.Regexp{
	CategoryBasicInfo: compilePatterns(
		`contact.*information`, `about.*college`, `mission.*vision`,
		`established.*in`, `founded.*in`, `college.*overview`,
	),
	CategorySemesterStructure: compilePatterns(
		`semester.*system`, `academic.*year`, `semester.*breakdown`,
		`academic.*structure`, `term.*duration`,
	),
	CategoryExaminationRules: compilePatterns(
		`examination.*rules`, `exam.*conduct`, `test.*procedures`,
		`examination.*malpractice`, `exam.*guidelines`,
	),
	CategoryEvaluationCriteria: compilePatterns(
		`grading.*system`, `marking.*scheme`, `assessment.*criteria`,
		`evaluation.*method`, `grade.*calculation`,
	),
	CategoryAttendancePolicies: compilePatterns(
		`attendance.*policy`, `attendance.*requirement`, `minimum.*attendance`,
		`attendance.*percentage`, `leave.*policy`,
	),
	CategoryAcademicCalendar: compilePatterns(
		`academic.*calendar`, `important.*dates`, `examination.*schedule`,
		`semester.*dates`, `academic.*schedule`,
	),
	CategoryCourseDetails: compilePatterns(
		`course.*structure`, `syllabus.*details`, `curriculum.*overview`,
		`course.*description`, `subject.*details`,
	),
	CategoryAssessmentMethods: compilePatterns(
		`assessment.*method`, `internal.*assessment`, `external.*examination`,
		`continuous.*assessment`, `project.*evaluation`,
	),
	CategoryDisciplinaryRules: compilePatterns(
		`disciplinary.*action`, `code.*of.*conduct`, `student.*behavior`,
		`disciplinary.*committee`, `misconduct.*penalties`,
	),
	CategoryGraduationRequirements: compilePatterns(
		`graduation.*requirement`, `degree.*completion`, `minimum.*credits`,
		`eligibility.*criteria`, `completion.*requirements`,
	),
	CategoryFeeStructure: compilePatterns(
		`fee.*structure`, `tuition.*fees`, `payment.*schedule`,
		`fee.*payment`, `scholarship.*details`,
	),
	CategoryFacilitiesRules: compilePatterns(
		`library.*rules`, `hostel.*regulations`, `laboratory.*guidelines`,
		`facility.*usage`, `infrastructure.*rules`,
	),
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// keywordPatterns holds the precompiled whole-word matcher per keyword.
var keywordPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if _, ok := out[kw]; !ok {
				out[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return out
}()

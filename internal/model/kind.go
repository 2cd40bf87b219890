package model

type TaskKind string

const (
	KindPlain         TaskKind = "plain"
	KindTest          TaskKind = "test"
	KindInstrument    TaskKind = "instrument"
	KindReport        TaskKind = "report"
	KindReportRequest TaskKind = "report_request"
	KindRunAll        TaskKind = "run_all"
)

var validKinds = map[TaskKind]bool{
	KindPlain:         true,
	KindTest:          true,
	KindInstrument:    true,
	KindReport:        true,
	KindReportRequest: true,
	KindRunAll:        true,
}

func IsValidKind(k TaskKind) bool {
	return validKinds[k]
}

// IsTestLike reports whether tasks of this kind execute tests and are
// therefore subject to classpath rewriting.
func (k TaskKind) IsTestLike() bool {
	return k == KindTest
}

// IsCoordination reports whether tasks of this kind exist only to hold
// graph edges and coverage tool invocations.
func (k TaskKind) IsCoordination() bool {
	switch k {
	case KindInstrument, KindReport, KindReportRequest, KindRunAll:
		return true
	}
	return false
}

package resynth

// Stage names a phase of a run for progress reporting.
type Stage string

const (
	StageAnalyze  Stage = "analyze"
	StageAllocate Stage = "allocate"
)

// Progress receives per-stage progress. Add may be called from several
// goroutines during StageAnalyze.
type Progress interface {
	Begin(stage Stage, total int)
	Add(n int)
	End()
}

type nopProgress struct{}

func (nopProgress) Begin(Stage, int) {}
func (nopProgress) Add(int)          {}
func (nopProgress) End()             {}

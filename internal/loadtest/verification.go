package loadtest

import (
	"fmt"
	"math"

	"github.com/okian/gamefit/internal/domain/prediction"
)

// Violation is one broken expectation.
type Violation struct {
	Index  int
	CaseID string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("case %d (%s): %s", v.Index, v.CaseID, v.Reason)
}

// Verify checks every outcome against the serving contract: invalid
// requests are rejected, answers echo modelVersion, bands agree with the
// reported probability, and repeated requests get identical answers.
func Verify(outcomes []Outcome, modelVersion string) []Violation {
	var out []Violation
	add := func(i int, format string, args ...interface{}) {
		out = append(out, Violation{Index: i, CaseID: outcomes[i].Case.ID, Reason: fmt.Sprintf(format, args...)})
	}

	for i, o := range outcomes {
		if o.Err != "" {
			add(i, "transport: %s", o.Err)
			continue
		}
		if o.Case.Kind == KindInvalid {
			if o.Status != StatusBadRequest {
				add(i, "invalid request answered with %d", o.Status)
			}
			continue
		}
		if o.Status != StatusOK {
			add(i, "valid request answered with %d", o.Status)
			continue
		}
		if o.Response.ModelVersion != modelVersion {
			add(i, "model version %q, want %q", o.Response.ModelVersion, modelVersion)
		}
		if reason := bandMismatch(o.Response); reason != "" {
			add(i, "%s", reason)
		}
		if o.Case.Kind == KindRepeat {
			first := outcomes[o.Case.Of]
			if first.Status == StatusOK && first.Response != o.Response {
				add(i, "repeat of case %d answered %+v, first answer %+v", o.Case.Of, o.Response, first.Response)
			}
		}
	}
	return out
}

// bandMismatch reports a confidence or verdict that disagrees with the
// percentage. A percentage exactly at a cut is ambiguous after rounding and
// accepts either neighbour.
func bandMismatch(r prediction.Response) string {
	p := r.SuccessProbability
	if p < 0 || p > 100 || math.IsNaN(p) {
		return fmt.Sprintf("probability %.2f outside [0,100]", p)
	}
	accepted := []float64{p / 100}
	for _, cut := range []float64{prediction.HighCut, prediction.MediumCut} {
		if p == prediction.Percent(cut) {
			accepted = append(accepted, cut+0.0001)
		}
	}
	for _, a := range accepted {
		if c, v := prediction.Classify(a); c == r.Confidence && v == r.Verdict {
			return ""
		}
	}
	return fmt.Sprintf("probability %.2f labelled %s / %s", p, r.Confidence, r.Verdict)
}

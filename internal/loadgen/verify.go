package loadgen

import (
	"fmt"

	"github.com/okian/tripbuddy/internal/domain/types"
)

// verify checks a completed search: results are ranked by total score and
// never contain the seeker.
func verify(seekerID string, st types.SearchStatus) error {
	for i, r := range st.Results {
		if r.UserID == seekerID {
			return fmt.Errorf("search %s: seeker %s matched with itself", st.SearchID, seekerID)
		}
		if i > 0 && r.TotalScore > st.Results[i-1].TotalScore {
			return fmt.Errorf("search %s: result %d scores %.4f above result %d (%.4f)",
				st.SearchID, i, r.TotalScore, i-1, st.Results[i-1].TotalScore)
		}
	}
	return nil
}

package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutOrdering(t *testing.T) {
	// A single command must fit inside a detector pass, and a detector pass
	// inside a full build, or timeouts can never fire at the right layer.
	assert.Less(t, CommandTimeout, DetectorTimeout)
	assert.Less(t, DetectorTimeout, BuildTimeout)
}

func TestCacheDefaults(t *testing.T) {
	assert.Positive(t, SnapshotTTL)
	assert.Positive(t, RefreshRate)
	assert.GreaterOrEqual(t, RefreshBurst, 1)
}

package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutPolicyKnownCategories(t *testing.T) {
	p := NewTimeoutPolicy(DefaultTimeoutConfig())

	assert.Equal(t, 300*time.Second, p.For(CategoryStageWorker))
	assert.Equal(t, 30*time.Second, p.For(CategoryRemoteAPI))
	assert.Equal(t, 600*time.Second, p.For(CategoryTestRunner))
	assert.Equal(t, 3600*time.Second, p.For(CategoryWholeTask))
}

func TestTimeoutPolicyUnknownCategoryFallsBackToStageWorker(t *testing.T) {
	p := NewTimeoutPolicy(DefaultTimeoutConfig())
	assert.Equal(t, p.For(CategoryStageWorker), p.For(TimeoutCategory("made_up_category")))
}

func TestTimeoutConfigSetOverrides(t *testing.T) {
	cfg := DefaultTimeoutConfig()
	cfg.Set(CategoryRemoteAPI, time.Minute)
	p := NewTimeoutPolicy(cfg)
	assert.Equal(t, time.Minute, p.For(CategoryRemoteAPI))
}

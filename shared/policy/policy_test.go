package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cflynn/nsbox/shared/policy"
)

func TestResolve(t *testing.T) {
	assert.True(t, policy.On.Resolve(false))
	assert.False(t, policy.Off.Resolve(true))
	assert.True(t, policy.Auto.Resolve(true))
	assert.False(t, policy.Auto.Resolve(false))
}

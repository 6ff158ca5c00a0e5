package store_test

import (
	"testing"

	"github.com/golobby/ormperf/store"
	"github.com/stretchr/testify/assert"
)

type plain struct{ store.RecordStore }

type eager struct{ store.RecordStore }

func (eager) EagerLoads() []string { return []string{"User"} }

func TestPreloads(t *testing.T) {
	assert.Nil(t, store.Preloads(plain{}, "User"))
	assert.Equal(t, []string{"User"}, store.Preloads(eager{}, "User", "Zoo"))
	assert.Nil(t, store.Preloads(eager{}, "Zoo"))
}

package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(b)
	registry.Register(nil)

	jobs := registry.Jobs()
	assert.Equal(t, []Job{a, b}, jobs)

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

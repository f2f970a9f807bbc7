package uid

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerate(t *testing.T) {
	gen := NewUUID()

	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSequence(t *testing.T) {
	seq := NewSequence("acc")
	assert.Equal(t, "acc-1", seq.Generate())
	assert.Equal(t, "acc-2", seq.Generate())
}

func TestSequence_Concurrent(t *testing.T) {
	seq := NewSequence("x")
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for range 50 {
		wg.Go(func() {
			id := seq.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

package kafka

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerCreatesAllWriters(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	defer p.Close()

	for _, topic := range AllTopics() {
		require.NotNil(t, p.writers[topic], "missing writer for %s", topic)
	}
	assert.Len(t, p.writers, len(AllTopics()))
}

// Marketplace write ops publish from concurrent request goroutines, so
// topic lookups must never mutate the writer map.
func TestProducerTopicLookupsSafeUnderConcurrency(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, topic := range AllTopics() {
				if p.writers[topic] == nil {
					t.Errorf("no writer for %s", topic)
				}
			}
		}()
	}
	wg.Wait()
}

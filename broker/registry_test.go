package broker

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	pb "go.linemq.dev/core/broker/protocol"
)

func TestRegistryConstruction(t *testing.T) {
	var reg, err = NewRegistry(map[string]int{"topic1": 3, "topic2": 2}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"topic1", "topic2"}, reg.Topics())
	require.True(t, reg.TopicExists("topic1"))
	require.False(t, reg.TopicExists("ghost_topic"))
	require.Equal(t, 3, reg.PartitionCount("topic1"))
	require.Equal(t, 2, reg.PartitionCount("topic2"))
	require.Equal(t, 0, reg.PartitionCount("ghost_topic"))

	_, err = NewRegistry(map[string]int{"topic1": 0}, nil)
	require.EqualError(t, err, "validating topics: TopicSpecs[0]: invalid Partitions (0; expected 1 <= Partitions <= 4096)")
	_, err = NewRegistry(map[string]int{"bad topic": 1}, nil)
	require.EqualError(t, err, "validating topics: TopicSpecs[0].Name: not a valid token (bad topic)")
}

func TestRegistryRoundRobin(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 3, "topic2": 2}, nil)

	for _, expect := range []int{0, 1, 2, 0, 1, 2, 0} {
		var index, err = reg.Produce("topic1", pb.Message{ID: 1, Content: "x"})
		require.NoError(t, err)
		require.Equal(t, expect, index)
	}
	// Cursors of topics are independent.
	for _, expect := range []int{0, 1, 0} {
		var index, err = reg.Produce("topic2", pb.Message{ID: 1, Content: "y"})
		require.NoError(t, err)
		require.Equal(t, expect, index)
	}

	var index, err = reg.Produce("ghost_topic", pb.Message{ID: 1})
	require.Equal(t, pb.ErrTopicNotFound, err)
	require.Equal(t, -1, index)

	_, err = reg.Produce("topic1", pb.Message{ID: 1, Content: "multi\nline"})
	require.EqualError(t, err, "produce: Content: must not contain line terminators (offset 5)")
}

func TestRegistryProduceConsumeScenario(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 3}, nil)
	var ctx = context.Background()

	var index, err = reg.Produce("topic1", pb.Message{ID: 1, Content: "hello world"})
	require.NoError(t, err)
	require.Equal(t, 0, index)

	index, err = reg.Produce("topic1", pb.Message{ID: 2, Content: "x"})
	require.NoError(t, err)
	require.Equal(t, 1, index)

	msg, err := reg.Consume(ctx, "topic1", 0)
	require.NoError(t, err)
	require.Equal(t, pb.Message{ID: 1, Content: "hello world"}, msg)

	msg, err = reg.Consume(ctx, "topic1", 1)
	require.NoError(t, err)
	require.Equal(t, pb.Message{ID: 2, Content: "x"}, msg)
}

func TestRegistryConsumeErrorsDoNotBlock(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 3}, nil)

	// Use an already-cancelled Context: were Consume to block, it would
	// return context.Canceled rather than the expected error.
	var ctx, cancel = context.WithCancel(context.Background())
	cancel()

	var _, err = reg.Consume(ctx, "ghost_topic", 0)
	require.Equal(t, pb.ErrTopicNotFound, err)
	_, err = reg.Consume(ctx, "topic1", 9)
	require.Equal(t, pb.ErrInvalidPartition, err)
	_, err = reg.Consume(ctx, "topic1", 3)
	require.Equal(t, pb.ErrInvalidPartition, err)
	_, err = reg.Consume(ctx, "topic1", -1)
	require.Equal(t, pb.ErrInvalidPartition, err)

	_, err = reg.Consume(ctx, "topic1", 2)
	require.Equal(t, context.Canceled, err)
}

func TestRegistryConsumeBlocksUntilProduce(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 1}, nil)
	var ch = make(chan pb.Message)

	go func() {
		var msg, err = reg.Consume(context.Background(), "topic1", 0)
		require.NoError(t, err)
		ch <- msg
	}()
	awaitWaiters(t, reg, "topic1", 0, 1)

	var _, err = reg.Produce("topic1", pb.Message{ID: 99, Content: " spaced  content "})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		require.Equal(t, pb.Message{ID: 99, Content: " spaced  content "}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("consume did not complete")
	}
}

func TestRegistryConcurrentProducersThenDrain(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 3, "topic2": 2}, nil)

	const producers, perProducer = 16, 100
	var wg sync.WaitGroup

	for p := 0; p != producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i != perProducer; i++ {
				var _, err = reg.Produce("topic1", pb.Message{ID: int64(p*perProducer + i)})
				require.NoError(t, err)
			}
		}(p)
	}
	wg.Wait()

	// Every Message was placed exactly once, and the partitions are balanced.
	var status = reg.Status("topic1")[0]
	require.Equal(t, producers*perProducer%3, status.Cursor)
	var seen = make(map[int64]bool)

	for _, ps := range status.Partitions {
		require.InDelta(t, producers*perProducer/3, ps.Depth, 1)

		for i := 0; i != ps.Depth; i++ {
			var msg, err = reg.Consume(context.Background(), "topic1", ps.Index)
			require.NoError(t, err)
			require.False(t, seen[msg.ID])
			seen[msg.ID] = true
		}
	}
	require.Len(t, seen, producers*perProducer)
}

func TestRegistryProducesToFullPartition(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 2}, NewBoundedPartitionFunc(1))

	for _, expect := range []int{0, 1} {
		var index, err = reg.Produce("topic1", pb.Message{ID: 1})
		require.NoError(t, err)
		require.Equal(t, expect, index)
	}
	// Rejected produces still consume a turn of the cursor.
	var index, err = reg.Produce("topic1", pb.Message{ID: 2})
	require.Equal(t, pb.ErrPartitionFull, err)
	require.Equal(t, 0, index)

	_, err = reg.Consume(context.Background(), "topic1", 0)
	require.NoError(t, err)

	index, err = reg.Produce("topic1", pb.Message{ID: 3})
	require.Equal(t, pb.ErrPartitionFull, err)
	require.Equal(t, 1, index)

	index, err = reg.Produce("topic1", pb.Message{ID: 4})
	require.NoError(t, err)
	require.Equal(t, 0, index)
}

func TestRegistryStatusAndCollector(t *testing.T) {
	var reg, _ = NewRegistry(map[string]int{"topic1": 3, "topic2": 2}, nil)

	var _, err = reg.Produce("topic2", pb.Message{ID: 1, Content: "hello"})
	require.NoError(t, err)

	require.Equal(t, []pb.TopicStatus{
		{
			Name:   "topic2",
			Cursor: 1,
			Partitions: []pb.PartitionStatus{
				{Index: 0, Depth: 1, Bytes: 5},
				{Index: 1},
			},
		},
	}, reg.Status("topic2", "ghost_topic"))

	var all = reg.Status()
	require.Len(t, all, 2)
	require.Equal(t, "topic1", all[0].Name)
	for _, ts := range all {
		require.NoError(t, ts.Validate())
	}

	// Three gauges of each of five partitions.
	require.Equal(t, 15, testutil.CollectAndCount(reg))
	require.NoError(t, testutil.CollectAndCompare(reg, strings.NewReader(`
# HELP linemq_partition_depth Number of messages queued in the partition.
# TYPE linemq_partition_depth gauge
linemq_partition_depth{partition="0",topic="topic1"} 0
linemq_partition_depth{partition="1",topic="topic1"} 0
linemq_partition_depth{partition="2",topic="topic1"} 0
linemq_partition_depth{partition="0",topic="topic2"} 1
linemq_partition_depth{partition="1",topic="topic2"} 0
`), "linemq_partition_depth"))
}

package broker

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	pb "go.linemq.dev/core/broker/protocol"
	"go.linemq.dev/core/metrics"
)

// Registry maps topic names to their fixed, ordered list of partition
// Queues. The set of topics and their partition counts are fixed at
// construction. A single registry-wide mutex serializes topic lookups and
// round-robin cursor updates, and is never held while calling into a Queue.
type Registry struct {
	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	name       string
	partitions []Queue
	cursor     int // Index of the partition of the next Produce.
}

// NewRegistry returns a Registry of the |topics| mapping of topic name to
// partition count. Partitions are built by |newQueue|, or are unbounded
// Partitions if |newQueue| is nil.
func NewRegistry(topics map[string]int, newQueue NewQueueFunc) (*Registry, error) {
	if newQueue == nil {
		newQueue = func() Queue { return NewPartition() }
	}

	var specs pb.TopicSpecs
	for name, count := range topics {
		specs = append(specs, pb.TopicSpec{Name: name, Partitions: count})
	}
	specs.Sort()

	if err := specs.Validate(); err != nil {
		return nil, errors.WithMessage(err, "validating topics")
	}

	var r = &Registry{topics: make(map[string]*topic, len(specs))}
	for _, spec := range specs {
		var t = &topic{
			name:       spec.Name,
			partitions: make([]Queue, spec.Partitions),
		}
		for i := range t.partitions {
			t.partitions[i] = newQueue()
		}
		r.topics[spec.Name] = t

		log.WithFields(log.Fields{
			"topic":      spec.Name,
			"partitions": spec.Partitions,
		}).Info("initialized topic")
	}
	log.WithField("topics", len(specs)).Info("broker initialized with topics")

	return r, nil
}

// TopicExists returns true if the named topic exists.
func (r *Registry) TopicExists(name string) bool {
	defer r.mu.Unlock()
	r.mu.Lock()

	var _, ok = r.topics[name]
	return ok
}

// PartitionCount returns the number of partitions of the named topic,
// or zero if the topic doesn't exist.
func (r *Registry) PartitionCount(name string) int {
	defer r.mu.Unlock()
	r.mu.Lock()

	if t, ok := r.topics[name]; ok {
		return len(t.partitions)
	}
	return 0
}

// Topics returns the sorted names of Registry topics.
func (r *Registry) Topics() []string {
	r.mu.Lock()
	var out = make([]string, 0, len(r.topics))
	for name := range r.topics {
		out = append(out, name)
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}

// Produce the Message to the next partition of the topic in round-robin
// order, returning the chosen partition index. A turn of the topic cursor
// is consumed even if the partition rejects the Message.
func (r *Registry) Produce(name string, msg pb.Message) (int, error) {
	if err := msg.Validate(); err != nil {
		return -1, errors.WithMessage(err, "produce")
	}

	r.mu.Lock()
	var t, ok = r.topics[name]
	if !ok {
		r.mu.Unlock()
		return -1, pb.ErrTopicNotFound
	}
	var index = t.cursor
	t.cursor = (t.cursor + 1) % len(t.partitions)
	var q = t.partitions[index]
	r.mu.Unlock()

	if err := q.Enqueue(msg); err != nil {
		return index, err
	}
	metrics.ProducedMessagesTotal.WithLabelValues(name).Inc()
	metrics.ProducedBytesTotal.WithLabelValues(name).Add(float64(len(msg.Content)))

	return index, nil
}

// Consume removes and returns the next Message of the topic partition,
// blocking until one is available or |ctx| is cancelled. An unknown topic
// or partition index fails immediately, without blocking.
func (r *Registry) Consume(ctx context.Context, name string, index int) (pb.Message, error) {
	r.mu.Lock()
	var t, ok = r.topics[name]
	var q Queue

	if ok && index >= 0 && index < len(t.partitions) {
		q = t.partitions[index]
	}
	r.mu.Unlock()

	if !ok {
		return pb.Message{}, pb.ErrTopicNotFound
	} else if q == nil {
		return pb.Message{}, pb.ErrInvalidPartition
	}

	var started = time.Now()
	addTrace(ctx, "Dequeue(%s, %d)", name, index)

	var msg, err = q.Dequeue(ctx)
	if err != nil {
		addTrace(ctx, " ... Dequeue aborted: %v", err)
		return pb.Message{}, err
	}
	addTrace(ctx, " ... Dequeue => %d (%s)", msg.ID, time.Since(started))

	metrics.ConsumedMessagesTotal.WithLabelValues(name).Inc()
	metrics.ConsumeWaitSeconds.WithLabelValues(name).Observe(time.Since(started).Seconds())

	return msg, nil
}

// Status returns snapshots of the named topics, or of all topics if
// |names| is empty. Unknown names are ignored.
func (r *Registry) Status(names ...string) []pb.TopicStatus {
	type snapshot struct {
		name       string
		cursor     int
		partitions []Queue
	}
	var snapshots []snapshot

	r.mu.Lock()
	if len(names) == 0 {
		for name := range r.topics {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if t, ok := r.topics[name]; ok {
			snapshots = append(snapshots, snapshot{name, t.cursor, t.partitions})
		}
	}
	r.mu.Unlock()

	// Partition status is gathered outside of |mu|, as each Queue takes its own lock.
	var out = make([]pb.TopicStatus, 0, len(snapshots))
	for _, s := range snapshots {
		var ts = pb.TopicStatus{
			Name:       s.name,
			Cursor:     s.cursor,
			Partitions: make([]pb.PartitionStatus, len(s.partitions)),
		}
		for i, q := range s.partitions {
			ts.Partitions[i] = q.Status()
			ts.Partitions[i].Index = i
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	ch <- metrics.PartitionDepthDesc
	ch <- metrics.PartitionBytesDesc
	ch <- metrics.PartitionBlockedConsumersDesc
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	for _, ts := range r.Status() {
		for _, ps := range ts.Partitions {
			var part = strconv.Itoa(ps.Index)

			ch <- prometheus.MustNewConstMetric(metrics.PartitionDepthDesc,
				prometheus.GaugeValue, float64(ps.Depth), ts.Name, part)
			ch <- prometheus.MustNewConstMetric(metrics.PartitionBytesDesc,
				prometheus.GaugeValue, float64(ps.Bytes), ts.Name, part)
			ch <- prometheus.MustNewConstMetric(metrics.PartitionBlockedConsumersDesc,
				prometheus.GaugeValue, float64(ps.Waiters), ts.Name, part)
		}
	}
}

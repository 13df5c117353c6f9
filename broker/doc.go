// Package broker implements the in-process data plane of a linemq broker.
// A `Partition` is an ordered, blocking queue of Messages. The `Registry`
// maps each topic to its fixed list of partitions and places produced
// Messages round-robin across them. `HandleConnection` drives a client
// connection through its request / response loop against a Registry, and
// `Service` accepts connections and runs a handler for each.
package broker

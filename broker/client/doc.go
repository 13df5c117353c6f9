// Package client implements a Go client of the line protocol of linemq
// brokers. A Client wraps a single broker connection, over which requests
// are issued one at a time:
//
//	var c, err = client.Dial(ctx, "localhost:8080")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	// Produce a message to the next partition of "topic1".
//	var partition, err = c.Produce(ctx, "topic1", pb.Message{ID: 1, Content: "hello world"})
//
//	// Consume the next message of partition 0, blocking until one is available.
//	var msg, err = c.Consume(ctx, "topic1", 0)
//
// Error responses of the broker are mapped back onto the sentinel errors of
// package protocol, such as protocol.ErrTopicNotFound. ListTopics fetches
// topic status snapshots from the broker's HTTP diagnostics endpoint.
package client

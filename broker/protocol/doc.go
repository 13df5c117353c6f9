// Package protocol defines the linemq wire protocol and the datamodel shared
// by brokers and clients: Messages, Requests and Responses of the line
// protocol, response Statuses, and TopicSpecs. Like the broker itself the
// protocol is deliberately small. A client writes one newline-terminated
// request line, and reads one response line before it writes the next:
//
//	PRODUCE <topic> <id> <content...>
//	CONSUME <topic> <partition>
//
// Requests are whitespace-tokenized. The content of a PRODUCE is the verbatim
// remainder of the line following its id, less a single separating space.
//
// Types of the package implement Validator, and are expected to be validated
// before they're written to the wire or applied by a broker.
//
// By convention, this package is usually imported as `pb`, short for
// "Protocol of Broker", eg:
//
//	import pb "go.linemq.dev/core/broker/protocol"
package protocol

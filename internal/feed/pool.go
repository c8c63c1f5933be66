package feed

import "sync"

// messagePool recycles decoded message envelopes to reduce GC pressure in the
// ingestion hotpath.
//
// Usage:
//
//	msg := acquireMessage()
//	// ... decode and route ...
//	releaseMessage(msg) // return to pool after dispatch
var messagePool = sync.Pool{
	New: func() interface{} {
		return &gdaxMessage{}
	},
}

// acquireMessage gets a gdaxMessage from the pool.
// The returned message has zero values and must be decoded into.
func acquireMessage() *gdaxMessage {
	return messagePool.Get().(*gdaxMessage)
}

// releaseMessage returns a gdaxMessage to the pool.
// The message is reset to zero values before being pooled.
func releaseMessage(msg *gdaxMessage) {
	if msg == nil {
		return
	}
	msg.reset()
	messagePool.Put(msg)
}

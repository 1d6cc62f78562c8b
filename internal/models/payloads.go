package models

// These structs define the JSON payloads crossing the worker boundary:
// the queue batch handed over by the runtime, the storage notification
// carried in each message body, and the completion event we emit.

// QueueBatch is one invocation's set of queued messages.
type QueueBatch struct {
	Records []QueueMessage `json:"Records"`
}

// QueueMessage wraps a serialized Notification.
type QueueMessage struct {
	MessageID     string `json:"messageId"`
	ReceiptHandle string `json:"receiptHandle,omitempty"`
	Body          string `json:"body"`
	EventSource   string `json:"eventSource,omitempty"`
}

// Notification mirrors the storage provider's "object created" payload.
type Notification struct {
	Records []StorageEventRecord `json:"Records"`
}

// StorageEventRecord is a single entry of a Notification. Pointers let the
// decoder tell a missing section apart from an empty one.
type StorageEventRecord struct {
	EventName string       `json:"eventName,omitempty"`
	S3        *StorageData `json:"s3"`
}

type StorageData struct {
	Bucket *BucketData `json:"bucket"`
	Object *ObjectData `json:"object"`
}

type BucketData struct {
	Name string `json:"name"`
}

type ObjectData struct {
	Key  *string `json:"key"`
	Size int64   `json:"size"`
}

// CompletionEvent is the status message emitted after a descriptor's artifact is stored.
type CompletionEvent struct {
	Status       string `json:"status"`
	SourceBucket string `json:"source_bucket"`
	SourceKey    string `json:"source_key"`
	OutputBucket string `json:"output_bucket"`
	OutputKey    string `json:"output_key"`
	FileSize     int64  `json:"file_size"`
	Pages        int    `json:"pages"`
	TextLength   int    `json:"text_length"`
}

// InvocationResult is the fixed acknowledgement returned for a successful batch.
type InvocationResult struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

package model

import "time"

// CorrelationEntry links a forwarded copy in the operator chat back to the
// end-user message it was made from. Entries are immutable once recorded.
type CorrelationEntry struct {
	ForwardedID       int
	SenderID          int64
	OriginalMessageID int
	CreatedAt         time.Time
}

// PendingReply is the operator's "next message goes to TargetID" intent,
// created by pressing the Reply button under AnchorMessageID.
type PendingReply struct {
	TargetID        int64 `json:"target_id"`
	AnchorMessageID int   `json:"anchor_message_id"`
}

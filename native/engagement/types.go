package engagement

// Comment is an append-only entry recorded against a video. Comments are never
// mutated or deleted once appended.
type Comment struct {
	VideoID   uint64   `json:"videoId"`
	Commenter [20]byte `json:"commenter"`
	Text      string   `json:"text"`
	Index     uint64   `json:"index"`
	PostedAt  int64    `json:"postedAt"`
}

// Clone returns a copy of the comment.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

package directory

// CreatorProfile holds creator metadata and the derived follower count.
// Profiles are created lazily on the first profile update or first follow.
type CreatorProfile struct {
	Address        [20]byte `json:"address"`
	MetadataURI    string   `json:"metadataUri"`
	TotalFollowers uint64   `json:"totalFollowers"`
	UpdatedAt      int64    `json:"updatedAt"`
}

// Clone returns a copy of the profile.
func (p *CreatorProfile) Clone() *CreatorProfile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

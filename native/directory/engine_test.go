package directory

import (
	"errors"
	"testing"
)

type followKey struct {
	follower [20]byte
	followee [20]byte
}

type mockState struct {
	profiles map[[20]byte]*CreatorProfile
	follows  map[followKey]bool
}

func newMockState() *mockState {
	return &mockState{
		profiles: make(map[[20]byte]*CreatorProfile),
		follows:  make(map[followKey]bool),
	}
}

func (m *mockState) ProfileGet(addr [20]byte) (*CreatorProfile, bool, error) {
	profile, ok := m.profiles[addr]
	if !ok {
		return nil, false, nil
	}
	return profile.Clone(), true, nil
}

func (m *mockState) ProfilePut(profile *CreatorProfile) error {
	if profile == nil {
		return nil
	}
	m.profiles[profile.Address] = profile.Clone()
	return nil
}

func (m *mockState) FollowGet(follower, followee [20]byte) (bool, error) {
	return m.follows[followKey{follower: follower, followee: followee}], nil
}

func (m *mockState) FollowSet(follower, followee [20]byte, following bool) error {
	key := followKey{follower: follower, followee: followee}
	if !following {
		delete(m.follows, key)
		return nil
	}
	m.follows[key] = true
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine
}

func TestUpdateProfileCreatesLazily(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	creator := addr(0x01)

	profile, err := engine.UpdateProfile(creator, "https://sample.com")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if profile.MetadataURI != "https://sample.com" {
		t.Fatalf("metadata not stored: %q", profile.MetadataURI)
	}
	loaded, err := engine.GetCreatorProfile(creator)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.MetadataURI != "https://sample.com" {
		t.Fatalf("metadata not persisted: %q", loaded.MetadataURI)
	}
}

func TestGetCreatorProfileDefault(t *testing.T) {
	engine := newEngine(newMockState())
	profile, err := engine.GetCreatorProfile(addr(0x07))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if profile.MetadataURI != "" || profile.TotalFollowers != 0 {
		t.Fatalf("expected empty default profile, got %+v", profile)
	}
	if profile.Address != addr(0x07) {
		t.Fatalf("default profile carries wrong address")
	}
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	follower, followee := addr(0x01), addr(0x02)

	if err := engine.FollowCreator(follower, followee); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	following, err := engine.IsFollowing(follower, followee)
	if err != nil || !following {
		t.Fatalf("expected isFollowing true, got %v err %v", following, err)
	}
	profile, _ := engine.GetCreatorProfile(followee)
	if profile.TotalFollowers != 1 {
		t.Fatalf("follower count not incremented: %d", profile.TotalFollowers)
	}

	if err := engine.UnfollowCreator(follower, followee); err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	following, _ = engine.IsFollowing(follower, followee)
	if following {
		t.Fatalf("edge still set after unfollow")
	}
	profile, _ = engine.GetCreatorProfile(followee)
	if profile.TotalFollowers != 0 {
		t.Fatalf("follower count not restored: %d", profile.TotalFollowers)
	}
}

func TestDoubleFollowRejected(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	follower, followee := addr(0x01), addr(0x02)

	if err := engine.FollowCreator(follower, followee); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	err := engine.FollowCreator(follower, followee)
	var followErr *InvalidFollowingError
	if !errors.As(err, &followErr) || followErr.Reason != ReasonAlreadyFollowing {
		t.Fatalf("expected InvalidFollowingError(Already following), got %v", err)
	}
	profile, _ := engine.GetCreatorProfile(followee)
	if profile.TotalFollowers != 1 {
		t.Fatalf("rejected follow changed counter: %d", profile.TotalFollowers)
	}
}

func TestUnfollowWithoutEdgeRejected(t *testing.T) {
	engine := newEngine(newMockState())
	err := engine.UnfollowCreator(addr(0x01), addr(0x02))
	var followErr *InvalidFollowingError
	if !errors.As(err, &followErr) || followErr.Reason != ReasonNotFollowing {
		t.Fatalf("expected InvalidFollowingError(Not following), got %v", err)
	}
}

func TestFollowEdgesAreDirected(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	a, b := addr(0x01), addr(0x02)

	if err := engine.FollowCreator(a, b); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	reverse, err := engine.IsFollowing(b, a)
	if err != nil {
		t.Fatalf("isFollowing failed: %v", err)
	}
	if reverse {
		t.Fatalf("reverse edge set by forward follow")
	}
}

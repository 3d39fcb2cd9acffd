package directory

import (
	"errors"
	"fmt"
	"time"

	"sessionsledger/core/events"
)

// Reasons reported by InvalidFollowingError.
const (
	ReasonAlreadyFollowing = "Already following"
	ReasonNotFollowing     = "Not following"
)

var errNilState = errors.New("directory engine: state not configured")

// InvalidFollowingError reports a follow or unfollow attempted against an
// already-consistent edge.
type InvalidFollowingError struct {
	Reason string
}

func (e *InvalidFollowingError) Error() string {
	return fmt.Sprintf("directory engine: invalid following: %s", e.Reason)
}

type engineState interface {
	ProfileGet(addr [20]byte) (*CreatorProfile, bool, error)
	ProfilePut(profile *CreatorProfile) error
	FollowGet(follower, followee [20]byte) (bool, error)
	FollowSet(follower, followee [20]byte, following bool) error
}

// Engine owns creator profiles and the follow graph.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a directory engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadOrNewProfile(addr [20]byte) (*CreatorProfile, error) {
	profile, ok, err := e.state.ProfileGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		profile = &CreatorProfile{Address: addr}
	}
	return profile, nil
}

// UpdateProfile sets the metadata URI on the caller's own profile, creating
// the profile if it does not yet exist. Identity equality is the only
// authorization required.
func (e *Engine) UpdateProfile(caller [20]byte, metadataURI string) (*CreatorProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	profile, err := e.loadOrNewProfile(caller)
	if err != nil {
		return nil, err
	}
	profile.MetadataURI = metadataURI
	profile.UpdatedAt = e.now()
	if err := e.state.ProfilePut(profile); err != nil {
		return nil, err
	}
	e.emit(WrapEvent(ProfileUpdatedEvent(hexAddr(caller), metadataURI)))
	return profile.Clone(), nil
}

// GetCreatorProfile returns the profile for the address, or a default empty
// profile when none was ever set.
func (e *Engine) GetCreatorProfile(addr [20]byte) (*CreatorProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	profile, ok, err := e.state.ProfileGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || profile == nil {
		return &CreatorProfile{Address: addr}, nil
	}
	return profile.Clone(), nil
}

// FollowCreator sets the follow edge and increments the followee's follower
// count. Following an already-followed creator is rejected.
func (e *Engine) FollowCreator(follower, followee [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	following, err := e.state.FollowGet(follower, followee)
	if err != nil {
		return err
	}
	if following {
		return &InvalidFollowingError{Reason: ReasonAlreadyFollowing}
	}
	if err := e.state.FollowSet(follower, followee, true); err != nil {
		return err
	}
	profile, err := e.loadOrNewProfile(followee)
	if err != nil {
		return err
	}
	profile.TotalFollowers++
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(WrapEvent(CreatorFollowedEvent(hexAddr(follower), hexAddr(followee), profile.TotalFollowers)))
	return nil
}

// UnfollowCreator clears the follow edge and decrements the follower count.
// Unfollowing without a standing edge is rejected.
func (e *Engine) UnfollowCreator(follower, followee [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	following, err := e.state.FollowGet(follower, followee)
	if err != nil {
		return err
	}
	if !following {
		return &InvalidFollowingError{Reason: ReasonNotFollowing}
	}
	if err := e.state.FollowSet(follower, followee, false); err != nil {
		return err
	}
	profile, err := e.loadOrNewProfile(followee)
	if err != nil {
		return err
	}
	if profile.TotalFollowers > 0 {
		profile.TotalFollowers--
	}
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(WrapEvent(CreatorUnfollowedEvent(hexAddr(follower), hexAddr(followee), profile.TotalFollowers)))
	return nil
}

// IsFollowing reports whether the follow edge is currently set.
func (e *Engine) IsFollowing(follower, followee [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.FollowGet(follower, followee)
}

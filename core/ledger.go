package core

import (
	"errors"
	"math/big"
	"sync"

	"sessionsledger/core/events"
	"sessionsledger/native/access"
	"sessionsledger/native/directory"
	"sessionsledger/native/engagement"
	"sessionsledger/native/oracle"
	"sessionsledger/native/registry"
	"sessionsledger/native/treasury"
	"sessionsledger/state"
	"sessionsledger/storage"
)

// ErrNoOracle is returned by ReferencePrice when no price client is wired.
var ErrNoOracle = errors.New("ledger: no price oracle configured")

// Ledger is the single entry point for every operation against the content
// ledger. It serializes callers behind one mutex and brackets each mutating
// operation in a state transaction so a failed engine call leaves the store
// untouched.
type Ledger struct {
	mu      sync.Mutex
	manager *state.Manager

	registry   *registry.Engine
	engagement *engagement.Engine
	directory  *directory.Engine
	treasury   *treasury.Engine

	access *access.Controller
	oracle oracle.Client
}

// NewLedger wires the engines over the supplied store with the given admin
// identity as owner.
func NewLedger(db storage.Database, owner [20]byte) *Ledger {
	manager := state.NewManager(db)
	ctrl := access.NewController(owner)

	l := &Ledger{
		manager:    manager,
		registry:   registry.NewEngine(),
		engagement: engagement.NewEngine(),
		directory:  directory.NewEngine(),
		treasury:   treasury.NewEngine(),
		access:     ctrl,
	}
	l.registry.SetState(manager)
	l.engagement.SetState(manager)
	l.directory.SetState(manager)
	l.treasury.SetState(manager)
	l.treasury.SetAccess(ctrl)
	return l
}

// SetEmitter routes engine events to the supplied sink.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	l.registry.SetEmitter(emitter)
	l.engagement.SetEmitter(emitter)
	l.directory.SetEmitter(emitter)
	l.treasury.SetEmitter(emitter)
}

// SetNowFunc overrides the clock on every engine. Used in tests.
func (l *Ledger) SetNowFunc(now func() int64) {
	l.registry.SetNowFunc(now)
	l.engagement.SetNowFunc(now)
	l.directory.SetNowFunc(now)
	l.treasury.SetNowFunc(now)
}

// SetOracle wires the external reference price client.
func (l *Ledger) SetOracle(client oracle.Client) {
	l.oracle = client
}

// Owner returns the admin identity.
func (l *Ledger) Owner() [20]byte {
	return l.access.Owner()
}

// write runs fn inside the per-operation transaction boundary. Any engine
// error rolls the overlay back before it surfaces.
func (l *Ledger) write(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.manager.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		l.manager.Rollback()
		return err
	}
	return l.manager.Commit()
}

// --- ContentRegistry ---

func (l *Ledger) UploadVideo(creator [20]byte, metadataURI string, mintLimit uint64, price *big.Int) (*registry.Video, error) {
	var video *registry.Video
	err := l.write(func() error {
		var err error
		video, err = l.registry.UploadVideo(creator, metadataURI, mintLimit, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (l *Ledger) MintVideo(minter [20]byte, videoID uint64, payment *big.Int) (*registry.MintReceipt, error) {
	var receipt *registry.MintReceipt
	err := l.write(func() error {
		var err error
		receipt, err = l.registry.MintVideo(minter, videoID, payment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (l *Ledger) UpdateMintLimit(caller [20]byte, videoID uint64, newLimit uint64) (*registry.Video, error) {
	var video *registry.Video
	err := l.write(func() error {
		var err error
		video, err = l.registry.UpdateMintLimit(caller, videoID, newLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (l *Ledger) UpdateMintPrice(caller [20]byte, videoID uint64, newPrice *big.Int) (*registry.Video, error) {
	var video *registry.Video
	err := l.write(func() error {
		var err error
		video, err = l.registry.UpdateMintPrice(caller, videoID, newPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (l *Ledger) GetVideo(videoID uint64) (*registry.Video, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registry.GetVideo(videoID)
}

// --- EngagementLedger ---

func (l *Ledger) LikeVideo(user [20]byte, videoID uint64) error {
	return l.write(func() error {
		return l.engagement.LikeVideo(user, videoID)
	})
}

func (l *Ledger) UnlikeVideo(user [20]byte, videoID uint64) error {
	return l.write(func() error {
		return l.engagement.UnlikeVideo(user, videoID)
	})
}

func (l *Ledger) HasLikedVideo(user [20]byte, videoID uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engagement.HasLikedVideo(user, videoID)
}

func (l *Ledger) CommentOnVideo(commenter [20]byte, videoID uint64, text string) (*engagement.Comment, error) {
	var comment *engagement.Comment
	err := l.write(func() error {
		var err error
		comment, err = l.engagement.CommentOnVideo(commenter, videoID, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (l *Ledger) GetTotalComments(videoID uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engagement.GetTotalComments(videoID)
}

func (l *Ledger) GetVideoComments(videoID uint64) ([]*engagement.Comment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engagement.GetVideoComments(videoID)
}

func (l *Ledger) GetVideoCommentsPaginated(videoID uint64, offset, limit uint64) ([]*engagement.Comment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engagement.GetVideoCommentsPaginated(videoID, offset, limit)
}

// --- CreatorDirectory ---

func (l *Ledger) UpdateProfile(caller [20]byte, metadataURI string) (*directory.CreatorProfile, error) {
	var profile *directory.CreatorProfile
	err := l.write(func() error {
		var err error
		profile, err = l.directory.UpdateProfile(caller, metadataURI)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (l *Ledger) GetCreatorProfile(addr [20]byte) (*directory.CreatorProfile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.directory.GetCreatorProfile(addr)
}

func (l *Ledger) FollowCreator(follower, followee [20]byte) error {
	return l.write(func() error {
		return l.directory.FollowCreator(follower, followee)
	})
}

func (l *Ledger) UnfollowCreator(follower, followee [20]byte) error {
	return l.write(func() error {
		return l.directory.UnfollowCreator(follower, followee)
	})
}

func (l *Ledger) IsFollowing(follower, followee [20]byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.directory.IsFollowing(follower, followee)
}

// --- Treasury ---

func (l *Ledger) SetFee(caller [20]byte, value uint64) error {
	return l.write(func() error {
		return l.treasury.SetFee(caller, value)
	})
}

func (l *Ledger) Fee() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.Fee()
}

func (l *Ledger) SetRevenueSplit(caller [20]byte, split treasury.RevenueSplit) error {
	return l.write(func() error {
		return l.treasury.SetRevenueSplit(caller, split)
	})
}

func (l *Ledger) GetSharedRevenue() (treasury.RevenueSplit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.GetSharedRevenue()
}

func (l *Ledger) SetProjectWallet(caller [20]byte, wallet [20]byte) error {
	return l.write(func() error {
		return l.treasury.SetProjectWallet(caller, wallet)
	})
}

func (l *Ledger) ProjectWallet() ([20]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.ProjectWallet()
}

func (l *Ledger) Withdraw(caller [20]byte) (*treasury.Withdrawal, error) {
	var withdrawal *treasury.Withdrawal
	err := l.write(func() error {
		var err error
		withdrawal, err = l.treasury.Withdraw(caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (l *Ledger) GetBalance() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury.GetBalance()
}

// --- Price oracle ---

// ReferencePrice surfaces the external quote for the configured pair. It does
// not touch ledger state.
func (l *Ledger) ReferencePrice() (oracle.ReferencePrice, error) {
	if l.oracle == nil {
		return oracle.ReferencePrice{}, ErrNoOracle
	}
	return l.oracle.GetReferencePrice()
}

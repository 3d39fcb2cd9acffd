package registry

import (
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"

	"sessionsledger/core/events"
	"sessionsledger/native/access"
)

var (
	// ErrVideoNotExist is returned when the referenced video id was never assigned.
	ErrVideoNotExist = errors.New("registry engine: video does not exist")
	// ErrMintLimitReached is returned when a mint would exceed the video's limit.
	ErrMintLimitReached = errors.New("registry engine: mint limit reached")
	// ErrIncorrectMintFee is returned when the payment does not exactly equal the price.
	ErrIncorrectMintFee = errors.New("registry engine: incorrect mint fee")
	// ErrInvalidMintLimit is returned when a mint limit is not a positive count.
	ErrInvalidMintLimit = errors.New("registry engine: mint limit must be positive")
	// ErrInvalidPrice is returned when a price is negative.
	ErrInvalidPrice = errors.New("registry engine: price must be non-negative")

	errNilState = errors.New("registry engine: state not configured")
)

type engineState interface {
	VideoGet(id uint64) (*Video, bool, error)
	VideoPut(video *Video) error
	VideoSequence() (uint64, error)
	SetVideoSequence(next uint64) error
	TreasuryBalanceGet() (*big.Int, error)
	TreasuryBalanceSet(balance *big.Int) error
}

// Engine wires video registration and mint accounting with persistence and
// event emission.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a registry engine with default dependencies.
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

// UploadVideo registers a new video under the next sequential id and records
// the caller as its creator. Metadata URIs are opaque and carry no uniqueness
// constraint.
func (e *Engine) UploadVideo(creator [20]byte, metadataURI string, mintLimit uint64, price *big.Int) (*Video, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if mintLimit == 0 {
		return nil, ErrInvalidMintLimit
	}
	if price == nil || price.Sign() < 0 {
		return nil, ErrInvalidPrice
	}
	id, err := e.state.VideoSequence()
	if err != nil {
		return nil, err
	}
	video := &Video{
		ID:          id,
		Creator:     creator,
		MetadataURI: metadataURI,
		MintLimit:   mintLimit,
		TotalMints:  0,
		Price:       new(big.Int).Set(price),
		Likes:       0,
		CreatedAt:   e.now(),
	}
	if err := e.state.VideoPut(video); err != nil {
		return nil, err
	}
	if err := e.state.SetVideoSequence(id + 1); err != nil {
		return nil, err
	}
	e.emit(WrapEvent(VideoUploadedEvent(video.ID, hexAddr(video.Creator), video.MetadataURI)))
	return video.Clone(), nil
}

// MintVideo records one mint of the video for the supplied payment. The
// payment must exactly equal the video's current price; overpayment is
// rejected the same way as underpayment. On success the payment amount is
// credited to the treasury balance together with the counter update.
func (e *Engine) MintVideo(minter [20]byte, videoID uint64, payment *big.Int) (*MintReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	video, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return nil, err
	}
	if !ok || video == nil {
		return nil, ErrVideoNotExist
	}
	if video.TotalMints >= video.MintLimit {
		return nil, ErrMintLimitReached
	}
	if payment == nil || video.Price == nil || payment.Cmp(video.Price) != 0 {
		return nil, ErrIncorrectMintFee
	}
	video.TotalMints++
	if err := e.state.VideoPut(video); err != nil {
		return nil, err
	}
	balance, err := e.state.TreasuryBalanceGet()
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	balance = new(big.Int).Add(balance, payment)
	if err := e.state.TreasuryBalanceSet(balance); err != nil {
		return nil, err
	}
	receipt := &MintReceipt{
		ReceiptID: uuid.NewString(),
		VideoID:   video.ID,
		Minter:    minter,
		Amount:    new(big.Int).Set(payment),
		Sequence:  video.TotalMints,
		MintedAt:  e.now(),
	}
	e.emit(WrapEvent(VideoMintedEvent(video.ID, hexAddr(minter), payment.String(), video.TotalMints)))
	return receipt, nil
}

// UpdateMintLimit replaces the mint limit of the caller's video. Lowering the
// limit below the current mint count is permitted; further mints then fail
// with ErrMintLimitReached until the limit is raised again.
func (e *Engine) UpdateMintLimit(caller [20]byte, videoID uint64, newLimit uint64) (*Video, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if newLimit == 0 {
		return nil, ErrInvalidMintLimit
	}
	video, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return nil, err
	}
	if !ok || video == nil {
		return nil, ErrVideoNotExist
	}
	if err := access.RequireSame(caller, video.Creator); err != nil {
		return nil, err
	}
	video.MintLimit = newLimit
	if err := e.state.VideoPut(video); err != nil {
		return nil, err
	}
	e.emit(WrapEvent(MintLimitUpdatedEvent(video.ID, newLimit)))
	return video.Clone(), nil
}

// UpdateMintPrice replaces the mint price of the caller's video.
func (e *Engine) UpdateMintPrice(caller [20]byte, videoID uint64, newPrice *big.Int) (*Video, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if newPrice == nil || newPrice.Sign() < 0 {
		return nil, ErrInvalidPrice
	}
	video, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return nil, err
	}
	if !ok || video == nil {
		return nil, ErrVideoNotExist
	}
	if err := access.RequireSame(caller, video.Creator); err != nil {
		return nil, err
	}
	video.Price = new(big.Int).Set(newPrice)
	if err := e.state.VideoPut(video); err != nil {
		return nil, err
	}
	e.emit(WrapEvent(MintPriceUpdatedEvent(video.ID, newPrice.String())))
	return video.Clone(), nil
}

// GetVideo returns the video record without mutating state.
func (e *Engine) GetVideo(videoID uint64) (*Video, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	video, ok, err := e.state.VideoGet(videoID)
	if err != nil {
		return nil, err
	}
	if !ok || video == nil {
		return nil, ErrVideoNotExist
	}
	return video.Clone(), nil
}

package treasury

import (
	"errors"
	"math/big"
	"time"

	"sessionsledger/core/events"
	"sessionsledger/native/access"
)

var (
	// ErrInvalidRevenueSplitRatio is returned when the supplied shares do not
	// sum to exactly 100.
	ErrInvalidRevenueSplitRatio = errors.New("treasury engine: revenue split must sum to 100")

	errNilState  = errors.New("treasury engine: state not configured")
	errNilAccess = errors.New("treasury engine: access controller not configured")
)

type engineState interface {
	FeeGet() (uint64, error)
	FeeSet(value uint64) error
	RevenueSplitGet() (RevenueSplit, bool, error)
	RevenueSplitSet(split RevenueSplit) error
	ProjectWalletGet() ([20]byte, error)
	ProjectWalletSet(addr [20]byte) error
	TreasuryBalanceGet() (*big.Int, error)
	TreasuryBalanceSet(balance *big.Int) error
}

// Engine owns collected value, the fee parameter, the revenue-split
// configuration, and withdrawal. Every mutation is gated on the
// administrative identity.
type Engine struct {
	state   engineState
	access  *access.Controller
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a treasury engine with default dependencies.
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

// SetAccess configures the authorization controller consulted before every
// mutation.
func (e *Engine) SetAccess(ctrl *access.Controller) { e.access = ctrl }

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

func (e *Engine) requireOwner(caller [20]byte) error {
	if e.access == nil {
		return errNilAccess
	}
	return e.access.RequireOwner(caller)
}

// SetFee stores the platform fee parameter. Administrative identity only.
func (e *Engine) SetFee(caller [20]byte, value uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.FeeSet(value); err != nil {
		return err
	}
	e.emit(WrapEvent(FeeUpdatedEvent(value)))
	return nil
}

// Fee returns the stored platform fee parameter.
func (e *Engine) Fee() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.FeeGet()
}

// SetRevenueSplit stores the revenue-split configuration. The three shares
// must sum to exactly 100. Administrative identity only.
func (e *Engine) SetRevenueSplit(caller [20]byte, split RevenueSplit) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if !split.Valid() {
		return ErrInvalidRevenueSplitRatio
	}
	if err := e.state.RevenueSplitSet(split); err != nil {
		return err
	}
	e.emit(WrapEvent(RevenueSplitUpdatedEvent(split)))
	return nil
}

// GetSharedRevenue returns the active revenue split. When no split has been
// configured all shares read as zero.
func (e *Engine) GetSharedRevenue() (RevenueSplit, error) {
	if e == nil || e.state == nil {
		return RevenueSplit{}, errNilState
	}
	split, _, err := e.state.RevenueSplitGet()
	return split, err
}

// SetProjectWallet designates where project-share value is directed.
// Administrative identity only.
func (e *Engine) SetProjectWallet(caller [20]byte, wallet [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.ProjectWalletSet(wallet); err != nil {
		return err
	}
	e.emit(WrapEvent(ProjectWalletUpdatedEvent(hexAddr(wallet))))
	return nil
}

// ProjectWallet returns the configured project wallet address.
func (e *Engine) ProjectWallet() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	return e.state.ProjectWalletGet()
}

// Withdraw transfers the entire current balance to the administrative
// identity and resets the balance to zero. The actual value transfer is
// delegated to the execution environment; the ledger records the accounting.
// Withdrawing an empty treasury is a no-op that reports a zero amount.
func (e *Engine) Withdraw(caller [20]byte) (*Withdrawal, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	balance, err := e.state.TreasuryBalanceGet()
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	withdrawal := &Withdrawal{
		Amount:      new(big.Int).Set(balance),
		Destination: caller,
		WithdrawnAt: e.now(),
	}
	if balance.Sign() > 0 {
		if err := e.state.TreasuryBalanceSet(big.NewInt(0)); err != nil {
			return nil, err
		}
	}
	e.emit(WrapEvent(WithdrawnEvent(hexAddr(caller), withdrawal.Amount.String())))
	return withdrawal, nil
}

// GetBalance returns the treasury's held value without mutating state.
func (e *Engine) GetBalance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.TreasuryBalanceGet()
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

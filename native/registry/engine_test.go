package registry

import (
	"errors"
	"math/big"
	"testing"

	"sessionsledger/native/access"
)

type mockState struct {
	videos  map[uint64]*Video
	seq     uint64
	balance *big.Int
}

func newMockState() *mockState {
	return &mockState{
		videos:  make(map[uint64]*Video),
		balance: big.NewInt(0),
	}
}

func (m *mockState) VideoGet(id uint64) (*Video, bool, error) {
	video, ok := m.videos[id]
	if !ok {
		return nil, false, nil
	}
	return video.Clone(), true, nil
}

func (m *mockState) VideoPut(video *Video) error {
	if video == nil {
		return nil
	}
	m.videos[video.ID] = video.Clone()
	return nil
}

func (m *mockState) VideoSequence() (uint64, error) { return m.seq, nil }

func (m *mockState) SetVideoSequence(next uint64) error {
	m.seq = next
	return nil
}

func (m *mockState) TreasuryBalanceGet() (*big.Int, error) {
	return new(big.Int).Set(m.balance), nil
}

func (m *mockState) TreasuryBalanceSet(balance *big.Int) error {
	m.balance = new(big.Int).Set(balance)
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

func TestUploadVideoAssignsSequentialIDs(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	creator := addr(0x01)

	first, err := engine.UploadVideo(creator, "ipfs://one", 10, big.NewInt(40))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if first.ID != 0 {
		t.Fatalf("expected first id 0, got %d", first.ID)
	}
	second, err := engine.UploadVideo(creator, "ipfs://two", 1, big.NewInt(40))
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if second.ID != 1 {
		t.Fatalf("expected second id 1, got %d", second.ID)
	}
	if second.Creator != creator {
		t.Fatalf("uploader not recorded as creator")
	}
}

func TestUploadVideoValidation(t *testing.T) {
	engine := newEngine(newMockState())
	if _, err := engine.UploadVideo(addr(0x01), "uri", 0, big.NewInt(1)); !errors.Is(err, ErrInvalidMintLimit) {
		t.Fatalf("expected ErrInvalidMintLimit, got %v", err)
	}
	if _, err := engine.UploadVideo(addr(0x01), "uri", 1, big.NewInt(-1)); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestMintVideoCreditsTreasury(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	video, err := engine.UploadVideo(addr(0x01), "uri", 10, big.NewInt(40))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	receipt, err := engine.MintVideo(addr(0x02), video.ID, big.NewInt(40))
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if receipt.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", receipt.Sequence)
	}
	if receipt.ReceiptID == "" {
		t.Fatalf("expected a receipt id")
	}
	stored, _, _ := state.VideoGet(video.ID)
	if stored.TotalMints != 1 {
		t.Fatalf("expected totalMints 1, got %d", stored.TotalMints)
	}
	if state.balance.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("treasury balance not credited, got %s", state.balance)
	}
}

func TestMintVideoRejectsWrongFee(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	video, _ := engine.UploadVideo(addr(0x01), "uri", 10, big.NewInt(40))

	for _, payment := range []*big.Int{big.NewInt(1), big.NewInt(41), nil} {
		if _, err := engine.MintVideo(addr(0x02), video.ID, payment); !errors.Is(err, ErrIncorrectMintFee) {
			t.Fatalf("payment %v: expected ErrIncorrectMintFee, got %v", payment, err)
		}
	}
	stored, _, _ := state.VideoGet(video.ID)
	if stored.TotalMints != 0 {
		t.Fatalf("failed mint changed totalMints: %d", stored.TotalMints)
	}
	if state.balance.Sign() != 0 {
		t.Fatalf("failed mint changed balance: %s", state.balance)
	}
}

func TestMintVideoEnforcesLimit(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	video, _ := engine.UploadVideo(addr(0x01), "uri", 2, big.NewInt(5))

	for i := 0; i < 2; i++ {
		if _, err := engine.MintVideo(addr(0x02), video.ID, big.NewInt(5)); err != nil {
			t.Fatalf("mint %d failed: %v", i, err)
		}
	}
	if _, err := engine.MintVideo(addr(0x02), video.ID, big.NewInt(5)); !errors.Is(err, ErrMintLimitReached) {
		t.Fatalf("expected ErrMintLimitReached, got %v", err)
	}
	stored, _, _ := state.VideoGet(video.ID)
	if stored.TotalMints != 2 {
		t.Fatalf("rejected mint changed totalMints: %d", stored.TotalMints)
	}
}

func TestMintVideoUnknownID(t *testing.T) {
	engine := newEngine(newMockState())
	if _, err := engine.MintVideo(addr(0x02), 7, big.NewInt(1)); !errors.Is(err, ErrVideoNotExist) {
		t.Fatalf("expected ErrVideoNotExist, got %v", err)
	}
}

func TestUpdateMintLimitAuthorization(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	creator := addr(0x01)
	video, _ := engine.UploadVideo(creator, "uri", 10, big.NewInt(5))

	if _, err := engine.UpdateMintLimit(addr(0x02), video.ID, 5); !errors.Is(err, access.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	updated, err := engine.UpdateMintLimit(creator, video.ID, 5)
	if err != nil {
		t.Fatalf("creator update failed: %v", err)
	}
	if updated.MintLimit != 5 {
		t.Fatalf("mint limit not updated: %d", updated.MintLimit)
	}
}

func TestUpdateMintLimitBelowTotalMints(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	creator := addr(0x01)
	video, _ := engine.UploadVideo(creator, "uri", 5, big.NewInt(5))
	for i := 0; i < 3; i++ {
		if _, err := engine.MintVideo(addr(0x02), video.ID, big.NewInt(5)); err != nil {
			t.Fatalf("mint %d failed: %v", i, err)
		}
	}

	// Lowering below the current count is a permitted, documented state.
	if _, err := engine.UpdateMintLimit(creator, video.ID, 1); err != nil {
		t.Fatalf("lowering limit failed: %v", err)
	}
	if _, err := engine.MintVideo(addr(0x02), video.ID, big.NewInt(5)); !errors.Is(err, ErrMintLimitReached) {
		t.Fatalf("expected ErrMintLimitReached after lowering, got %v", err)
	}
}

func TestUpdateMintPrice(t *testing.T) {
	state := newMockState()
	engine := newEngine(state)
	creator := addr(0x01)
	video, _ := engine.UploadVideo(creator, "uri", 10, big.NewInt(5))

	if _, err := engine.UpdateMintPrice(addr(0x03), video.ID, big.NewInt(9)); !errors.Is(err, access.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	updated, err := engine.UpdateMintPrice(creator, video.ID, big.NewInt(9))
	if err != nil {
		t.Fatalf("price update failed: %v", err)
	}
	if updated.Price.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("price not updated: %s", updated.Price)
	}
	if _, err := engine.MintVideo(addr(0x02), video.ID, big.NewInt(5)); !errors.Is(err, ErrIncorrectMintFee) {
		t.Fatalf("old price accepted after update: %v", err)
	}
}

func TestGetVideoUnknownID(t *testing.T) {
	engine := newEngine(newMockState())
	if _, err := engine.GetVideo(3); !errors.Is(err, ErrVideoNotExist) {
		t.Fatalf("expected ErrVideoNotExist, got %v", err)
	}
}

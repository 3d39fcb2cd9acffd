package core

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"sessionsledger/core/events"
	"sessionsledger/native/access"
	"sessionsledger/native/directory"
	"sessionsledger/native/engagement"
	"sessionsledger/native/oracle"
	"sessionsledger/native/registry"
	"sessionsledger/native/treasury"
	"sessionsledger/storage"
)

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger(storage.NewMemDB(), addr(0xAD))
	ledger.SetNowFunc(func() int64 { return 1_700_000_000 })
	return ledger
}

func TestLedgerUploadAndMintFlow(t *testing.T) {
	ledger := newTestLedger(t)
	creator := addr(1)
	minter := addr(2)

	video, err := ledger.UploadVideo(creator, "ipfs://clip", 11, big.NewInt(500))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if video.ID != 0 {
		t.Fatalf("expected first video id 0, got %d", video.ID)
	}

	for i := 0; i < 11; i++ {
		if _, err := ledger.MintVideo(minter, video.ID, big.NewInt(500)); err != nil {
			t.Fatalf("mint %d: %v", i, err)
		}
	}
	if _, err := ledger.MintVideo(minter, video.ID, big.NewInt(500)); !errors.Is(err, registry.ErrMintLimitReached) {
		t.Fatalf("expected mint limit error, got %v", err)
	}

	balance, err := ledger.GetBalance()
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	want := big.NewInt(11 * 500)
	if balance.Cmp(want) != 0 {
		t.Fatalf("expected treasury balance %s, got %s", want, balance)
	}
}

func TestLedgerMintRollbackOnWrongFee(t *testing.T) {
	ledger := newTestLedger(t)
	video, err := ledger.UploadVideo(addr(1), "ipfs://clip", 5, big.NewInt(100))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := ledger.MintVideo(addr(2), video.ID, big.NewInt(99)); !errors.Is(err, registry.ErrIncorrectMintFee) {
		t.Fatalf("expected incorrect fee error, got %v", err)
	}
	loaded, err := ledger.GetVideo(video.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if loaded.TotalMints != 0 {
		t.Fatalf("expected no mints recorded after failed payment, got %d", loaded.TotalMints)
	}
	balance, _ := ledger.GetBalance()
	if balance.Sign() != 0 {
		t.Fatalf("expected untouched balance, got %s", balance)
	}
}

func TestLedgerLikeUnlikeRoundTrip(t *testing.T) {
	ledger := newTestLedger(t)
	user := addr(3)
	video, err := ledger.UploadVideo(addr(1), "ipfs://clip", 1, big.NewInt(0))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := ledger.LikeVideo(user, video.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	var engErr *engagement.InvalidEngagementError
	if err := ledger.LikeVideo(user, video.ID); !errors.As(err, &engErr) || engErr.Kind != engagement.KindLike {
		t.Fatalf("expected double-like rejection, got %v", err)
	}
	liked, err := ledger.HasLikedVideo(user, video.ID)
	if err != nil || !liked {
		t.Fatalf("expected liked=true, got %v err=%v", liked, err)
	}
	loaded, _ := ledger.GetVideo(video.ID)
	if loaded.Likes != 1 {
		t.Fatalf("expected like counter 1, got %d", loaded.Likes)
	}
	if err := ledger.UnlikeVideo(user, video.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	loaded, _ = ledger.GetVideo(video.ID)
	if loaded.Likes != 0 {
		t.Fatalf("expected like counter back to 0, got %d", loaded.Likes)
	}
	if err := ledger.UnlikeVideo(user, video.ID); !errors.As(err, &engErr) || engErr.Kind != engagement.KindUnlike {
		t.Fatalf("expected unlike rejection, got %v", err)
	}
}

func TestLedgerCommentsAndPagination(t *testing.T) {
	ledger := newTestLedger(t)
	video, err := ledger.UploadVideo(addr(1), "ipfs://clip", 1, big.NewInt(0))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := ledger.CommentOnVideo(addr(byte(i+2)), video.ID, "note"); err != nil {
			t.Fatalf("comment %d: %v", i, err)
		}
	}
	total, err := ledger.GetTotalComments(video.ID)
	if err != nil || total != 10 {
		t.Fatalf("expected 10 comments, got %d err=%v", total, err)
	}
	page, err := ledger.GetVideoCommentsPaginated(video.ID, 8, 5)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected trailing page of 2, got %d", len(page))
	}
	if page[0].Index != 8 || page[1].Index != 9 {
		t.Fatalf("unexpected page indices %d, %d", page[0].Index, page[1].Index)
	}
	if _, err := ledger.CommentOnVideo(addr(2), 99, "nope"); !errors.Is(err, registry.ErrVideoNotExist) {
		t.Fatalf("expected unknown video rejection, got %v", err)
	}
}

func TestLedgerFollowGraph(t *testing.T) {
	ledger := newTestLedger(t)
	follower := addr(4)
	creator := addr(5)
	if err := ledger.FollowCreator(follower, creator); err != nil {
		t.Fatalf("follow: %v", err)
	}
	var folErr *directory.InvalidFollowingError
	if err := ledger.FollowCreator(follower, creator); !errors.As(err, &folErr) || folErr.Reason != directory.ReasonAlreadyFollowing {
		t.Fatalf("expected already-following rejection, got %v", err)
	}
	profile, err := ledger.GetCreatorProfile(creator)
	if err != nil || profile.TotalFollowers != 1 {
		t.Fatalf("expected 1 follower, got %+v err=%v", profile, err)
	}
	if err := ledger.UnfollowCreator(follower, creator); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	profile, _ = ledger.GetCreatorProfile(creator)
	if profile.TotalFollowers != 0 {
		t.Fatalf("expected follower count back to 0, got %d", profile.TotalFollowers)
	}
	following, err := ledger.IsFollowing(follower, creator)
	if err != nil || following {
		t.Fatalf("expected not following, got %v err=%v", following, err)
	}
}

func TestLedgerTreasuryAdministration(t *testing.T) {
	ledger := newTestLedger(t)
	admin := ledger.Owner()
	outsider := addr(9)

	if err := ledger.SetFee(outsider, 100); !errors.Is(err, access.ErrNotAuthorized) {
		t.Fatalf("expected authorization failure, got %v", err)
	}
	if err := ledger.SetFee(admin, 100); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	fee, err := ledger.Fee()
	if err != nil || fee != 100 {
		t.Fatalf("expected fee 100, got %d err=%v", fee, err)
	}

	bad := treasury.RevenueSplit{CreatorShare: 50, ProjectShare: 10, TreasuryShare: 20}
	if err := ledger.SetRevenueSplit(admin, bad); !errors.Is(err, treasury.ErrInvalidRevenueSplitRatio) {
		t.Fatalf("expected split rejection, got %v", err)
	}
	good := treasury.RevenueSplit{CreatorShare: 70, ProjectShare: 20, TreasuryShare: 10}
	if err := ledger.SetRevenueSplit(admin, good); err != nil {
		t.Fatalf("set split: %v", err)
	}
	split, err := ledger.GetSharedRevenue()
	if err != nil || split != good {
		t.Fatalf("unexpected split %+v err=%v", split, err)
	}
}

func TestLedgerWithdrawDrainsBalance(t *testing.T) {
	ledger := newTestLedger(t)
	admin := ledger.Owner()
	video, err := ledger.UploadVideo(addr(1), "ipfs://clip", 3, big.NewInt(400))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := ledger.MintVideo(addr(2), video.ID, big.NewInt(400)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if _, err := ledger.Withdraw(addr(9)); !errors.Is(err, access.ErrNotAuthorized) {
		t.Fatalf("expected authorization failure, got %v", err)
	}
	withdrawal, err := ledger.Withdraw(admin)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawal.Amount.Cmp(big.NewInt(1200)) != 0 {
		t.Fatalf("expected withdrawal of 1200, got %s", withdrawal.Amount)
	}
	balance, _ := ledger.GetBalance()
	if balance.Sign() != 0 {
		t.Fatalf("expected drained balance, got %s", balance)
	}
}

func TestLedgerReferencePrice(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.ReferencePrice(); !errors.Is(err, ErrNoOracle) {
		t.Fatalf("expected ErrNoOracle, got %v", err)
	}
	client := oracle.NewManualClient()
	if err := client.SetDecimal("2450.75", time.Unix(1_700_000_000, 0)); err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	ledger.SetOracle(client)
	quote, err := ledger.ReferencePrice()
	if err != nil {
		t.Fatalf("reference price: %v", err)
	}
	if quote.RateString(2) != "2450.75" {
		t.Fatalf("unexpected rate %s", quote.RateString(2))
	}
}

type captureEmitter struct {
	types []string
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.types = append(c.types, evt.EventType())
}

func TestLedgerRoutesEvents(t *testing.T) {
	ledger := newTestLedger(t)
	capture := &captureEmitter{}
	ledger.SetEmitter(capture)

	video, err := ledger.UploadVideo(addr(1), "ipfs://clip", 1, big.NewInt(50))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := ledger.MintVideo(addr(2), video.ID, big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	want := []string{registry.EventTypeVideoUploaded, registry.EventTypeVideoMinted}
	if len(capture.types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), capture.types)
	}
	for i, eventType := range want {
		if capture.types[i] != eventType {
			t.Fatalf("expected event %q at %d, got %q", eventType, i, capture.types[i])
		}
	}
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	db := storage.NewMemDB()
	owner := addr(0xAD)

	first := NewLedger(db, owner)
	first.SetNowFunc(func() int64 { return 42 })
	video, err := first.UploadVideo(addr(1), "ipfs://clip", 2, big.NewInt(10))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := first.MintVideo(addr(2), video.ID, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	second := NewLedger(db, owner)
	loaded, err := second.GetVideo(video.ID)
	if err != nil {
		t.Fatalf("get video after reopen: %v", err)
	}
	if loaded.TotalMints != 1 || loaded.MetadataURI != "ipfs://clip" {
		t.Fatalf("unexpected video after reopen: %+v", loaded)
	}
	next, err := second.UploadVideo(addr(1), "ipfs://next", 1, big.NewInt(0))
	if err != nil {
		t.Fatalf("upload after reopen: %v", err)
	}
	if next.ID != video.ID+1 {
		t.Fatalf("expected sequence to continue at %d, got %d", video.ID+1, next.ID)
	}
}

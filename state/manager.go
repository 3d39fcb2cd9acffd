package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"sessionsledger/native/directory"
	"sessionsledger/native/engagement"
	"sessionsledger/native/registry"
	"sessionsledger/native/treasury"
	"sessionsledger/storage"
)

const (
	videoKeyFormat   = "sessions/video/%020d"
	videoSeqKey      = "sessions/video-seq"
	commentKeyFormat = "sessions/comments/%020d"
	likeKeyFormat    = "sessions/like/%020d/%s"
	profileKeyFormat = "sessions/profile/%s"
	followKeyFormat  = "sessions/follow/%s/%s"
	feeKey           = "sessions/treasury/fee"
	splitKey         = "sessions/treasury/split"
	projectWalletKey = "sessions/treasury/project-wallet"
	balanceKey       = "sessions/treasury/balance"
)

var (
	// ErrTxActive is returned when Begin is called while a transaction is open.
	ErrTxActive = errors.New("state: transaction already active")
	// ErrNoTx is returned when Commit or Rollback is called without Begin.
	ErrNoTx = errors.New("state: no active transaction")

	// presentMarker is the stored value for set-membership keys (likes and
	// follow edges); absence of the key means the relation does not exist.
	presentMarker = []byte{0x01}
)

// Manager provides typed access to the ledger's persisted records. All writes
// issued between Begin and Commit are buffered in an overlay and land in the
// backing store as a unit; Rollback discards them. The manager itself is not
// safe for concurrent use — the ledger serializes operations above it.
type Manager struct {
	db storage.Database
	tx *overlay
}

type overlay struct {
	// writes maps key -> value; a nil value marks a pending delete.
	writes map[string][]byte
}

// NewManager constructs a manager over the supplied key-value store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens the per-operation transaction boundary.
func (m *Manager) Begin() error {
	if m.tx != nil {
		return ErrTxActive
	}
	m.tx = &overlay{writes: make(map[string][]byte)}
	return nil
}

// Commit flushes every buffered write through a single atomic batch and closes
// the transaction. Keys are batched in sorted order so replayed commits touch
// the store deterministically; a failed flush leaves the store untouched and
// the transaction open for Rollback.
func (m *Manager) Commit() error {
	if m.tx == nil {
		return ErrNoTx
	}
	keys := make([]string, 0, len(m.tx.writes))
	for key := range m.tx.writes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	batch := new(storage.Batch)
	for _, key := range keys {
		value := m.tx.writes[key]
		if value == nil {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), value)
	}
	if err := m.db.Write(batch); err != nil {
		return err
	}
	m.tx = nil
	return nil
}

// Rollback discards every buffered write and closes the transaction.
func (m *Manager) Rollback() {
	m.tx = nil
}

// InTransaction reports whether a transaction is currently open.
func (m *Manager) InTransaction() bool {
	return m.tx != nil
}

func (m *Manager) get(key string) ([]byte, bool, error) {
	if m.tx != nil {
		if value, ok := m.tx.writes[key]; ok {
			if value == nil {
				return nil, false, nil
			}
			return value, true, nil
		}
	}
	value, err := m.db.Get([]byte(key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) put(key string, value []byte) error {
	if m.tx != nil {
		m.tx.writes[key] = append([]byte(nil), value...)
		return nil
	}
	return m.db.Put([]byte(key), value)
}

func (m *Manager) delete(key string) error {
	if m.tx != nil {
		m.tx.writes[key] = nil
		return nil
	}
	return m.db.Delete([]byte(key))
}

// --- ContentRegistry records ---

type storedVideo struct {
	ID          uint64
	Creator     []byte
	MetadataURI string
	MintLimit   uint64
	TotalMints  uint64
	Price       []byte
	Likes       uint64
	CreatedAt   uint64
}

// VideoGet loads a video record by id.
func (m *Manager) VideoGet(id uint64) (*registry.Video, bool, error) {
	data, ok, err := m.get(fmt.Sprintf(videoKeyFormat, id))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedVideo
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode video %d: %w", id, err)
	}
	video := &registry.Video{
		ID:          stored.ID,
		MetadataURI: stored.MetadataURI,
		MintLimit:   stored.MintLimit,
		TotalMints:  stored.TotalMints,
		Likes:       stored.Likes,
		CreatedAt:   int64(stored.CreatedAt),
	}
	copy(video.Creator[:], stored.Creator)
	if len(stored.Price) == 0 {
		video.Price = big.NewInt(0)
	} else {
		video.Price = new(big.Int).SetBytes(stored.Price)
	}
	return video, true, nil
}

// VideoPut stores a video record under its id.
func (m *Manager) VideoPut(video *registry.Video) error {
	if video == nil {
		return errors.New("state: nil video")
	}
	price := []byte{}
	if video.Price != nil {
		price = video.Price.Bytes()
	}
	encoded, err := rlp.EncodeToBytes(storedVideo{
		ID:          video.ID,
		Creator:     append([]byte(nil), video.Creator[:]...),
		MetadataURI: video.MetadataURI,
		MintLimit:   video.MintLimit,
		TotalMints:  video.TotalMints,
		Price:       price,
		Likes:       video.Likes,
		CreatedAt:   uint64(video.CreatedAt),
	})
	if err != nil {
		return err
	}
	return m.put(fmt.Sprintf(videoKeyFormat, video.ID), encoded)
}

// VideoSequence returns the next unassigned video id.
func (m *Manager) VideoSequence() (uint64, error) {
	data, ok, err := m.get(videoSeqKey)
	if err != nil || !ok {
		return 0, err
	}
	var seq uint64
	if err := rlp.DecodeBytes(data, &seq); err != nil {
		return 0, fmt.Errorf("state: decode video sequence: %w", err)
	}
	return seq, nil
}

// SetVideoSequence stores the next unassigned video id.
func (m *Manager) SetVideoSequence(next uint64) error {
	encoded, err := rlp.EncodeToBytes(next)
	if err != nil {
		return err
	}
	return m.put(videoSeqKey, encoded)
}

// --- EngagementLedger records ---

type storedComment struct {
	Commenter []byte
	Text      string
	PostedAt  uint64
}

// CommentsGet loads the full comment sequence for a video in insertion order.
// Unknown ids read as an empty sequence.
func (m *Manager) CommentsGet(videoID uint64) ([]*engagement.Comment, error) {
	data, ok, err := m.get(fmt.Sprintf(commentKeyFormat, videoID))
	if err != nil || !ok {
		return []*engagement.Comment{}, err
	}
	var stored []storedComment
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode comments %d: %w", videoID, err)
	}
	comments := make([]*engagement.Comment, len(stored))
	for i, entry := range stored {
		comment := &engagement.Comment{
			VideoID:  videoID,
			Text:     entry.Text,
			Index:    uint64(i),
			PostedAt: int64(entry.PostedAt),
		}
		copy(comment.Commenter[:], entry.Commenter)
		comments[i] = comment
	}
	return comments, nil
}

// CommentsPut replaces the stored comment sequence for a video. The engine
// only ever appends; the sequence index is positional.
func (m *Manager) CommentsPut(videoID uint64, comments []*engagement.Comment) error {
	stored := make([]storedComment, len(comments))
	for i, comment := range comments {
		if comment == nil {
			return errors.New("state: nil comment")
		}
		stored[i] = storedComment{
			Commenter: append([]byte(nil), comment.Commenter[:]...),
			Text:      comment.Text,
			PostedAt:  uint64(comment.PostedAt),
		}
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return m.put(fmt.Sprintf(commentKeyFormat, videoID), encoded)
}

// LikeGet reports the like record for (videoID, user). Absent keys read as
// false; "false" and "absent" are deliberately the same state.
func (m *Manager) LikeGet(videoID uint64, user [20]byte) (bool, error) {
	_, ok, err := m.get(fmt.Sprintf(likeKeyFormat, videoID, hex.EncodeToString(user[:])))
	return ok, err
}

// LikeSet toggles the like record for (videoID, user). Clearing a record
// removes the key entirely.
func (m *Manager) LikeSet(videoID uint64, user [20]byte, liked bool) error {
	key := fmt.Sprintf(likeKeyFormat, videoID, hex.EncodeToString(user[:]))
	if !liked {
		return m.delete(key)
	}
	return m.put(key, presentMarker)
}

// --- CreatorDirectory records ---

type storedProfile struct {
	Address        []byte
	MetadataURI    string
	TotalFollowers uint64
	UpdatedAt      uint64
}

// ProfileGet loads a creator profile.
func (m *Manager) ProfileGet(addr [20]byte) (*directory.CreatorProfile, bool, error) {
	data, ok, err := m.get(fmt.Sprintf(profileKeyFormat, hex.EncodeToString(addr[:])))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedProfile
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode profile: %w", err)
	}
	profile := &directory.CreatorProfile{
		MetadataURI:    stored.MetadataURI,
		TotalFollowers: stored.TotalFollowers,
		UpdatedAt:      int64(stored.UpdatedAt),
	}
	copy(profile.Address[:], stored.Address)
	return profile, true, nil
}

// ProfilePut stores a creator profile under its address.
func (m *Manager) ProfilePut(profile *directory.CreatorProfile) error {
	if profile == nil {
		return errors.New("state: nil profile")
	}
	encoded, err := rlp.EncodeToBytes(storedProfile{
		Address:        append([]byte(nil), profile.Address[:]...),
		MetadataURI:    profile.MetadataURI,
		TotalFollowers: profile.TotalFollowers,
		UpdatedAt:      uint64(profile.UpdatedAt),
	})
	if err != nil {
		return err
	}
	return m.put(fmt.Sprintf(profileKeyFormat, hex.EncodeToString(profile.Address[:])), encoded)
}

// FollowGet reports whether the (follower, followee) edge is set.
func (m *Manager) FollowGet(follower, followee [20]byte) (bool, error) {
	key := fmt.Sprintf(followKeyFormat, hex.EncodeToString(follower[:]), hex.EncodeToString(followee[:]))
	_, ok, err := m.get(key)
	return ok, err
}

// FollowSet toggles the (follower, followee) edge.
func (m *Manager) FollowSet(follower, followee [20]byte, following bool) error {
	key := fmt.Sprintf(followKeyFormat, hex.EncodeToString(follower[:]), hex.EncodeToString(followee[:]))
	if !following {
		return m.delete(key)
	}
	return m.put(key, presentMarker)
}

// --- Treasury records ---

type storedSplit struct {
	CreatorShare  uint64
	ProjectShare  uint64
	TreasuryShare uint64
}

// FeeGet returns the stored fee parameter; unset reads as zero.
func (m *Manager) FeeGet() (uint64, error) {
	data, ok, err := m.get(feeKey)
	if err != nil || !ok {
		return 0, err
	}
	var fee uint64
	if err := rlp.DecodeBytes(data, &fee); err != nil {
		return 0, fmt.Errorf("state: decode fee: %w", err)
	}
	return fee, nil
}

// FeeSet stores the fee parameter.
func (m *Manager) FeeSet(value uint64) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.put(feeKey, encoded)
}

// RevenueSplitGet returns the stored split and whether one was ever set.
func (m *Manager) RevenueSplitGet() (treasury.RevenueSplit, bool, error) {
	data, ok, err := m.get(splitKey)
	if err != nil || !ok {
		return treasury.RevenueSplit{}, false, err
	}
	var stored storedSplit
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return treasury.RevenueSplit{}, false, fmt.Errorf("state: decode revenue split: %w", err)
	}
	return treasury.RevenueSplit{
		CreatorShare:  stored.CreatorShare,
		ProjectShare:  stored.ProjectShare,
		TreasuryShare: stored.TreasuryShare,
	}, true, nil
}

// RevenueSplitSet stores the split configuration.
func (m *Manager) RevenueSplitSet(split treasury.RevenueSplit) error {
	encoded, err := rlp.EncodeToBytes(storedSplit{
		CreatorShare:  split.CreatorShare,
		ProjectShare:  split.ProjectShare,
		TreasuryShare: split.TreasuryShare,
	})
	if err != nil {
		return err
	}
	return m.put(splitKey, encoded)
}

// ProjectWalletGet returns the stored project wallet; unset reads as the zero
// address.
func (m *Manager) ProjectWalletGet() ([20]byte, error) {
	var wallet [20]byte
	data, ok, err := m.get(projectWalletKey)
	if err != nil || !ok {
		return wallet, err
	}
	copy(wallet[:], data)
	return wallet, nil
}

// ProjectWalletSet stores the project wallet address.
func (m *Manager) ProjectWalletSet(addr [20]byte) error {
	return m.put(projectWalletKey, append([]byte(nil), addr[:]...))
}

// TreasuryBalanceGet returns the ledger's held value; unset reads as zero.
func (m *Manager) TreasuryBalanceGet() (*big.Int, error) {
	data, ok, err := m.get(balanceKey)
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	return new(big.Int).SetBytes(data), nil
}

// TreasuryBalanceSet stores the ledger's held value.
func (m *Manager) TreasuryBalanceSet(balance *big.Int) error {
	if balance == nil || balance.Sign() < 0 {
		return errors.New("state: balance must be non-negative")
	}
	return m.put(balanceKey, balance.Bytes())
}

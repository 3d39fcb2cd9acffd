package registry

import "math/big"

// Video is the ledger record for a registered media item. Records are created
// by uploads and mutated by mint, like, and creator-edit operations; they are
// never deleted.
type Video struct {
	ID          uint64   `json:"id"`
	Creator     [20]byte `json:"creator"`
	MetadataURI string   `json:"metadataUri"`
	MintLimit   uint64   `json:"mintLimit"`
	TotalMints  uint64   `json:"totalMints"`
	Price       *big.Int `json:"price"`
	Likes       uint64   `json:"likes"`
	CreatedAt   int64    `json:"createdAt"`
}

// Clone returns a deep copy of the video record.
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	clone := *v
	if v.Price != nil {
		clone.Price = new(big.Int).Set(v.Price)
	}
	return &clone
}

// MintReceipt captures one successful mint of a video against its limit.
type MintReceipt struct {
	ReceiptID string   `json:"receiptId"`
	VideoID   uint64   `json:"videoId"`
	Minter    [20]byte `json:"minter"`
	Amount    *big.Int `json:"amount"`
	Sequence  uint64   `json:"sequence"`
	MintedAt  int64    `json:"mintedAt"`
}

package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"sessionsledger/crypto"
	"sessionsledger/native/access"
	"sessionsledger/native/registry"
	"sessionsledger/observability"
)

type uploadVideoParams struct {
	Caller      string `json:"caller"`
	MetadataURI string `json:"metadataUri"`
	MintLimit   uint64 `json:"mintLimit"`
	Price       string `json:"price"`
}

type mintVideoParams struct {
	Caller  string `json:"caller"`
	VideoID uint64 `json:"videoId"`
	Payment string `json:"payment"`
}

type updateMintLimitParams struct {
	Caller   string `json:"caller"`
	VideoID  uint64 `json:"videoId"`
	NewLimit uint64 `json:"newLimit"`
}

type updateMintPriceParams struct {
	Caller   string `json:"caller"`
	VideoID  uint64 `json:"videoId"`
	NewPrice string `json:"newPrice"`
}

type videoIDParams struct {
	VideoID uint64 `json:"videoId"`
}

type videoResult struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	MetadataURI string `json:"metadataUri"`
	MintLimit   uint64 `json:"mintLimit"`
	TotalMints  uint64 `json:"totalMints"`
	Price       string `json:"price"`
	Likes       uint64 `json:"likes"`
	CreatedAt   int64  `json:"createdAt"`
}

type mintReceiptResult struct {
	ReceiptID string `json:"receiptId"`
	VideoID   uint64 `json:"videoId"`
	Minter    string `json:"minter"`
	Amount    string `json:"amount"`
	Sequence  uint64 `json:"sequence"`
	MintedAt  int64  `json:"mintedAt"`
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.SessionsPrefix, addr[:]).String()
}

func formatVideo(video *registry.Video) videoResult {
	price := "0"
	if video.Price != nil {
		price = video.Price.String()
	}
	return videoResult{
		ID:          video.ID,
		Creator:     formatAddress(video.Creator),
		MetadataURI: video.MetadataURI,
		MintLimit:   video.MintLimit,
		TotalMints:  video.TotalMints,
		Price:       price,
		Likes:       video.Likes,
		CreatedAt:   video.CreatedAt,
	}
}

func formatMintReceipt(receipt *registry.MintReceipt) mintReceiptResult {
	amount := "0"
	if receipt.Amount != nil {
		amount = receipt.Amount.String()
	}
	return mintReceiptResult{
		ReceiptID: receipt.ReceiptID,
		VideoID:   receipt.VideoID,
		Minter:    formatAddress(receipt.Minter),
		Amount:    amount,
		Sequence:  receipt.Sequence,
		MintedAt:  receipt.MintedAt,
	}
}

func decodeBech32(addr string) ([20]byte, error) {
	var zero [20]byte
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(addr))
	if err != nil {
		return zero, err
	}
	copy(zero[:], decoded.Bytes())
	return zero, nil
}

// parseAmount accepts a non-negative base-10 integer string. An empty string
// reads as zero so callers can omit free prices.
func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return value, nil
}

// writeLedgerError maps engine errors onto JSON-RPC error codes.
func writeLedgerError(w http.ResponseWriter, id interface{}, context string, err error) {
	if errors.Is(err, access.ErrNotAuthorized) {
		writeError(w, http.StatusUnauthorized, id, codeUnauthorized, context, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, id, codeInvalidParams, context, err.Error())
}

func decodeSingleParam(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

func (s *Server) handleUploadVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params uploadVideoParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid price", err.Error())
		return
	}
	video, err := s.ledger.UploadVideo(callerAddr, strings.TrimSpace(params.MetadataURI), params.MintLimit, price)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to upload video", err)
		return
	}
	observability.Ledger().RecordUpload()
	writeResult(w, req.ID, formatVideo(video))
}

func (s *Server) handleMintVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintVideoParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payment", err.Error())
		return
	}
	receipt, err := s.ledger.MintVideo(callerAddr, params.VideoID, payment)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to mint video", err)
		return
	}
	observability.Ledger().RecordMint()
	writeResult(w, req.ID, formatMintReceipt(receipt))
}

func (s *Server) handleUpdateMintLimit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateMintLimitParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	video, err := s.ledger.UpdateMintLimit(callerAddr, params.VideoID, params.NewLimit)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to update mint limit", err)
		return
	}
	writeResult(w, req.ID, formatVideo(video))
}

func (s *Server) handleUpdateMintPrice(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateMintPriceParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newPrice, err := parseAmount(params.NewPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid price", err.Error())
		return
	}
	video, err := s.ledger.UpdateMintPrice(callerAddr, params.VideoID, newPrice)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to update mint price", err)
		return
	}
	writeResult(w, req.ID, formatVideo(video))
}

func (s *Server) handleGetVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params videoIDParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	video, err := s.ledger.GetVideo(params.VideoID)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load video", err)
		return
	}
	writeResult(w, req.ID, formatVideo(video))
}

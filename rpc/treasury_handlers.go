package rpc

import (
	"net/http"

	"sessionsledger/native/treasury"
	"sessionsledger/observability"
)

type setUsdcFeeParams struct {
	Caller string `json:"caller"`
	Fee    uint64 `json:"fee"`
}

type setRevenueSplitParams struct {
	Caller        string `json:"caller"`
	CreatorShare  uint64 `json:"creatorShare"`
	ProjectShare  uint64 `json:"projectShare"`
	TreasuryShare uint64 `json:"treasuryShare"`
}

type setProjectWalletParams struct {
	Caller string `json:"caller"`
	Wallet string `json:"wallet"`
}

type callerParams struct {
	Caller string `json:"caller"`
}

type usdcFeeResult struct {
	Fee uint64 `json:"fee"`
}

type revenueSplitResult struct {
	CreatorShare  uint64 `json:"creatorShare"`
	ProjectShare  uint64 `json:"projectShare"`
	TreasuryShare uint64 `json:"treasuryShare"`
}

type projectWalletResult struct {
	Wallet string `json:"wallet"`
}

type treasuryBalanceResult struct {
	Balance string `json:"balance"`
}

type withdrawalResult struct {
	Amount      string `json:"amount"`
	Destination string `json:"destination"`
	WithdrawnAt int64  `json:"withdrawnAt"`
}

func formatRevenueSplit(split treasury.RevenueSplit) revenueSplitResult {
	return revenueSplitResult{
		CreatorShare:  split.CreatorShare,
		ProjectShare:  split.ProjectShare,
		TreasuryShare: split.TreasuryShare,
	}
}

func (s *Server) handleSetUsdcFee(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setUsdcFeeParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.ledger.SetFee(callerAddr, params.Fee); err != nil {
		writeLedgerError(w, req.ID, "failed to set fee", err)
		return
	}
	writeResult(w, req.ID, usdcFeeResult{Fee: params.Fee})
}

func (s *Server) handleGetUsdcFee(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	fee, err := s.ledger.Fee()
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load fee", err)
		return
	}
	writeResult(w, req.ID, usdcFeeResult{Fee: fee})
}

func (s *Server) handleSetRevenueSplit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setRevenueSplitParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	split := treasury.RevenueSplit{
		CreatorShare:  params.CreatorShare,
		ProjectShare:  params.ProjectShare,
		TreasuryShare: params.TreasuryShare,
	}
	if err := s.ledger.SetRevenueSplit(callerAddr, split); err != nil {
		writeLedgerError(w, req.ID, "failed to set revenue split", err)
		return
	}
	writeResult(w, req.ID, formatRevenueSplit(split))
}

func (s *Server) handleGetSharedRevenue(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	split, err := s.ledger.GetSharedRevenue()
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load revenue split", err)
		return
	}
	writeResult(w, req.ID, formatRevenueSplit(split))
}

func (s *Server) handleSetProjectWallet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setProjectWalletParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	walletAddr, err := decodeBech32(params.Wallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid wallet address", err.Error())
		return
	}
	if err := s.ledger.SetProjectWallet(callerAddr, walletAddr); err != nil {
		writeLedgerError(w, req.ID, "failed to set project wallet", err)
		return
	}
	writeResult(w, req.ID, projectWalletResult{Wallet: params.Wallet})
}

func (s *Server) handleGetProjectWallet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	wallet, err := s.ledger.ProjectWallet()
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load project wallet", err)
		return
	}
	writeResult(w, req.ID, projectWalletResult{Wallet: formatAddress(wallet)})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params callerParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	withdrawal, err := s.ledger.Withdraw(callerAddr)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to withdraw", err)
		return
	}
	observability.Ledger().RecordWithdrawal()
	amount := "0"
	if withdrawal.Amount != nil {
		amount = withdrawal.Amount.String()
	}
	writeResult(w, req.ID, withdrawalResult{
		Amount:      amount,
		Destination: formatAddress(withdrawal.Destination),
		WithdrawnAt: withdrawal.WithdrawnAt,
	})
}

func (s *Server) handleGetTreasuryBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	balance, err := s.ledger.GetBalance()
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load treasury balance", err)
		return
	}
	writeResult(w, req.ID, treasuryBalanceResult{Balance: balance.String()})
}

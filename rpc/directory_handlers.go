package rpc

import (
	"net/http"
	"strings"

	"sessionsledger/native/directory"
)

type updateProfileParams struct {
	Caller      string `json:"caller"`
	MetadataURI string `json:"metadataUri"`
}

type creatorAddressParams struct {
	Creator string `json:"creator"`
}

type followParams struct {
	Caller  string `json:"caller"`
	Creator string `json:"creator"`
}

type profileResult struct {
	Address        string `json:"address"`
	MetadataURI    string `json:"metadataUri"`
	TotalFollowers uint64 `json:"totalFollowers"`
	UpdatedAt      int64  `json:"updatedAt"`
}

type followStatusResult struct {
	Follower  string `json:"follower"`
	Creator   string `json:"creator"`
	Following bool   `json:"following"`
}

func formatProfile(profile *directory.CreatorProfile) profileResult {
	return profileResult{
		Address:        formatAddress(profile.Address),
		MetadataURI:    profile.MetadataURI,
		TotalFollowers: profile.TotalFollowers,
		UpdatedAt:      profile.UpdatedAt,
	}
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateProfileParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	profile, err := s.ledger.UpdateProfile(callerAddr, strings.TrimSpace(params.MetadataURI))
	if err != nil {
		writeLedgerError(w, req.ID, "failed to update profile", err)
		return
	}
	writeResult(w, req.ID, formatProfile(profile))
}

func (s *Server) handleGetCreatorProfile(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params creatorAddressParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	creatorAddr, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	profile, err := s.ledger.GetCreatorProfile(creatorAddr)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load profile", err)
		return
	}
	writeResult(w, req.ID, formatProfile(profile))
}

func (s *Server) handleFollowCreator(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params followParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	creatorAddr, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	if err := s.ledger.FollowCreator(callerAddr, creatorAddr); err != nil {
		writeLedgerError(w, req.ID, "failed to follow creator", err)
		return
	}
	writeResult(w, req.ID, followStatusResult{Follower: params.Caller, Creator: params.Creator, Following: true})
}

func (s *Server) handleUnfollowCreator(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params followParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	creatorAddr, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	if err := s.ledger.UnfollowCreator(callerAddr, creatorAddr); err != nil {
		writeLedgerError(w, req.ID, "failed to unfollow creator", err)
		return
	}
	writeResult(w, req.ID, followStatusResult{Follower: params.Caller, Creator: params.Creator, Following: false})
}

func (s *Server) handleIsFollowing(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params followParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	creatorAddr, err := decodeBech32(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	following, err := s.ledger.IsFollowing(callerAddr, creatorAddr)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load follow status", err)
		return
	}
	writeResult(w, req.ID, followStatusResult{Follower: params.Caller, Creator: params.Creator, Following: following})
}

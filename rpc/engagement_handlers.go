package rpc

import (
	"net/http"

	"sessionsledger/native/engagement"
)

type engagementVideoParams struct {
	Caller  string `json:"caller"`
	VideoID uint64 `json:"videoId"`
}

type commentOnVideoParams struct {
	Caller  string `json:"caller"`
	VideoID uint64 `json:"videoId"`
	Text    string `json:"text"`
}

type commentsPageParams struct {
	VideoID uint64 `json:"videoId"`
	Offset  uint64 `json:"offset"`
	Limit   uint64 `json:"limit"`
}

type likeStatusResult struct {
	VideoID uint64 `json:"videoId"`
	User    string `json:"user"`
	Liked   bool   `json:"liked"`
}

type commentResult struct {
	VideoID   uint64 `json:"videoId"`
	Commenter string `json:"commenter"`
	Text      string `json:"text"`
	Index     uint64 `json:"index"`
	PostedAt  int64  `json:"postedAt"`
}

type commentCountResult struct {
	VideoID uint64 `json:"videoId"`
	Total   uint64 `json:"total"`
}

func formatComment(comment *engagement.Comment) commentResult {
	return commentResult{
		VideoID:   comment.VideoID,
		Commenter: formatAddress(comment.Commenter),
		Text:      comment.Text,
		Index:     comment.Index,
		PostedAt:  comment.PostedAt,
	}
}

func formatComments(comments []*engagement.Comment) []commentResult {
	out := make([]commentResult, len(comments))
	for i, comment := range comments {
		out[i] = formatComment(comment)
	}
	return out
}

func (s *Server) handleLikeVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params engagementVideoParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.ledger.LikeVideo(callerAddr, params.VideoID); err != nil {
		writeLedgerError(w, req.ID, "failed to like video", err)
		return
	}
	writeResult(w, req.ID, likeStatusResult{VideoID: params.VideoID, User: params.Caller, Liked: true})
}

func (s *Server) handleUnlikeVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params engagementVideoParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.ledger.UnlikeVideo(callerAddr, params.VideoID); err != nil {
		writeLedgerError(w, req.ID, "failed to unlike video", err)
		return
	}
	writeResult(w, req.ID, likeStatusResult{VideoID: params.VideoID, User: params.Caller, Liked: false})
}

func (s *Server) handleHasLikedVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params engagementVideoParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	liked, err := s.ledger.HasLikedVideo(callerAddr, params.VideoID)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load like status", err)
		return
	}
	writeResult(w, req.ID, likeStatusResult{VideoID: params.VideoID, User: params.Caller, Liked: liked})
}

func (s *Server) handleCommentOnVideo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params commentOnVideoParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	callerAddr, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	comment, err := s.ledger.CommentOnVideo(callerAddr, params.VideoID, params.Text)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to comment on video", err)
		return
	}
	writeResult(w, req.ID, formatComment(comment))
}

func (s *Server) handleGetTotalComments(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params videoIDParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	total, err := s.ledger.GetTotalComments(params.VideoID)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to count comments", err)
		return
	}
	writeResult(w, req.ID, commentCountResult{VideoID: params.VideoID, Total: total})
}

func (s *Server) handleGetVideoComments(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params videoIDParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	comments, err := s.ledger.GetVideoComments(params.VideoID)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load comments", err)
		return
	}
	writeResult(w, req.ID, formatComments(comments))
}

func (s *Server) handleGetVideoCommentsPaginated(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params commentsPageParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	comments, err := s.ledger.GetVideoCommentsPaginated(params.VideoID, params.Offset, params.Limit)
	if err != nil {
		writeLedgerError(w, req.ID, "failed to load comments", err)
		return
	}
	writeResult(w, req.ID, formatComments(comments))
}

package rpc

import (
	"net/http"
)

type referencePriceResult struct {
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
}

func (s *Server) handleGetReferencePrice(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	quote, err := s.ledger.ReferencePrice()
	if err != nil {
		writeError(w, http.StatusBadGateway, req.ID, codeServerError, "reference price unavailable", err.Error())
		return
	}
	// A quote without a timestamp reports 0 rather than the zero time's epoch.
	var ts int64
	if !quote.Timestamp.IsZero() {
		ts = quote.Timestamp.Unix()
	}
	writeResult(w, req.ID, referencePriceResult{
		Price:     quote.RateString(8),
		Timestamp: ts,
		Source:    quote.Source,
	})
}

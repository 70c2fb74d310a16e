package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"lendbook/observability/metrics"
)

type offerParams struct {
	Lender            string   `json:"lender"`
	LoanAmount        string   `json:"loanAmount"`
	Rate              string   `json:"rate"`
	PositionIDs       []string `json:"positionIds"`
	CollateralAmounts []string `json:"collateralAmounts"`
	MinimumLoanAmount string   `json:"minimumLoanAmount"`
	Duration          int64    `json:"duration"`
	Perpetual         bool     `json:"perpetual"`
}

type cancelOfferParams struct {
	OfferID uint64 `json:"offerId"`
	Caller  string `json:"caller"`
}

type acceptParams struct {
	Borrower         string `json:"borrower"`
	OfferID          uint64 `json:"offerId"`
	PositionID       string `json:"positionId"`
	CollateralAmount string `json:"collateralAmount"`
	MinimumDuration  int64  `json:"minimumDuration"`
	UseProxy         bool   `json:"useProxy"`
}

type loanActionParams struct {
	LoanID   uint64 `json:"loanId"`
	Caller   string `json:"caller"`
	UseProxy bool   `json:"useProxy,omitempty"`
}

type repayParams struct {
	LoanID      uint64 `json:"loanId"`
	Caller      string `json:"caller"`
	PaybackTime int64  `json:"paybackTime"`
}

type transferParams struct {
	LoanID    uint64 `json:"loanId"`
	NewLender string `json:"newLender"`
	NewRate   string `json:"newRate"`
}

type lookupParams struct {
	OfferID   uint64 `json:"offerId,omitempty"`
	LoanID    uint64 `json:"loanId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected a single parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parseAmounts(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		amount, err := parseAmount(v)
		if err != nil {
			return nil, err
		}
		out[i] = amount
	}
	return out, nil
}

func (s *Server) handleOffer(w http.ResponseWriter, req *RPCRequest) {
	var input offerParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	lender, err := parseAddress(input.Lender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	loanAmount, err := parseAmount(input.LoanAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rate, err := parseAmount(input.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	positionIDs, err := parseAmounts(input.PositionIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collateralAmounts, err := parseAmounts(input.CollateralAmounts)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	minimumLoanAmount := big.NewInt(0)
	if input.MinimumLoanAmount != "" {
		if minimumLoanAmount, err = parseAmount(input.MinimumLoanAmount); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
	}

	offer, err := s.engine.CreateOffer(lender, loanAmount, rate, positionIDs, collateralAmounts, minimumLoanAmount, input.Duration, input.Perpetual)
	metrics.ObserveOperation("lend_offer", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, offer)
}

func (s *Server) handleCancelOffer(w http.ResponseWriter, req *RPCRequest) {
	var input cancelOfferParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.CancelOffer(input.OfferID, caller)
	metrics.ObserveOperation("lend_cancelOffer", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": true})
}

func (s *Server) handleAccept(w http.ResponseWriter, req *RPCRequest) {
	var input acceptParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	borrower, err := parseAddress(input.Borrower)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	positionID, err := parseAmount(input.PositionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collateralAmount, err := parseAmount(input.CollateralAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	loan, err := s.engine.Accept(borrower, input.OfferID, positionID, collateralAmount, input.MinimumDuration, input.UseProxy)
	metrics.ObserveOperation("lend_accept", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, loan)
}

func (s *Server) handleCall(w http.ResponseWriter, req *RPCRequest) {
	var input loanActionParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.Call(input.LoanID, caller)
	metrics.ObserveOperation("lend_call", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"called": true})
}

func (s *Server) handleRepay(w http.ResponseWriter, req *RPCRequest) {
	var input repayParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.Repay(input.LoanID, caller, input.PaybackTime)
	metrics.ObserveOperation("lend_repay", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"repaid": true})
}

func (s *Server) handleTransfer(w http.ResponseWriter, req *RPCRequest) {
	var input transferParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	newLender, err := parseAddress(input.NewLender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	newRate, err := parseAmount(input.NewRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	loan, err := s.engine.Transfer(input.LoanID, newLender, newRate)
	metrics.ObserveOperation("lend_transfer", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, loan)
}

func (s *Server) handleReclaim(w http.ResponseWriter, req *RPCRequest) {
	var input loanActionParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress(input.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.Reclaim(input.LoanID, caller, input.UseProxy)
	metrics.ObserveOperation("lend_reclaim", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"reclaimed": true})
}

func (s *Server) handleGetOffer(w http.ResponseWriter, req *RPCRequest) {
	var input lookupParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	offer, err := s.engine.GetOffer(input.OfferID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, offer)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, req *RPCRequest) {
	var input lookupParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	loan, err := s.engine.GetLoan(input.LoanID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, loan)
}

func (s *Server) handleAmountOwed(w http.ResponseWriter, req *RPCRequest) {
	var input lookupParams
	if err := decodeParams(req, &input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owed, err := s.engine.AmountOwedAsOf(input.LoanID, input.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"amountOwed": owed.String()})
}

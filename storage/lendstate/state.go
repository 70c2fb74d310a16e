package lendstate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"lendbook/native/lend"
	"lendbook/storage"
)

const (
	offerKeyPrefix = "lend/offer/"
	loanKeyPrefix  = "lend/loan/"
	offerSeqKey    = "lend/seq/offer"
	loanSeqKey     = "lend/seq/loan"
)

// State persists the lend engine's offer and loan arenas as JSON records in
// the shared key-value store. Records are written in full on every Put; the
// engine serialises access, so no additional locking is required here.
type State struct {
	db storage.Database
}

// New wires a lend state codec over the supplied database.
func New(db storage.Database) *State {
	return &State{db: db}
}

func offerKey(id uint64) []byte {
	return []byte(offerKeyPrefix + strconv.FormatUint(id, 10))
}

func loanKey(id uint64) []byte {
	return []byte(loanKeyPrefix + strconv.FormatUint(id, 10))
}

// OfferGet loads an offer by id.
func (s *State) OfferGet(id uint64) (*lend.Offer, bool) {
	raw, err := s.db.Get(offerKey(id))
	if err != nil {
		return nil, false
	}
	offer := new(lend.Offer)
	if err := json.Unmarshal(raw, offer); err != nil {
		return nil, false
	}
	return offer, true
}

// OfferPut stores an offer record, overwriting any prior version.
func (s *State) OfferPut(offer *lend.Offer) error {
	if offer == nil {
		return fmt.Errorf("lendstate: nil offer")
	}
	raw, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return s.db.Put(offerKey(offer.ID), raw)
}

// LoanGet loads a loan by id.
func (s *State) LoanGet(id uint64) (*lend.Loan, bool) {
	raw, err := s.db.Get(loanKey(id))
	if err != nil {
		return nil, false
	}
	loan := new(lend.Loan)
	if err := json.Unmarshal(raw, loan); err != nil {
		return nil, false
	}
	return loan, true
}

// LoanPut stores a loan record, overwriting any prior version.
func (s *State) LoanPut(loan *lend.Loan) error {
	if loan == nil {
		return fmt.Errorf("lendstate: nil loan")
	}
	raw, err := json.Marshal(loan)
	if err != nil {
		return err
	}
	return s.db.Put(loanKey(loan.ID), raw)
}

// NextOfferID reserves and returns the next offer identifier, starting at 1.
func (s *State) NextOfferID() (uint64, error) {
	return s.nextSequence(offerSeqKey)
}

// NextLoanID reserves and returns the next loan identifier, starting at 1.
func (s *State) NextLoanID() (uint64, error) {
	return s.nextSequence(loanSeqKey)
}

func (s *State) nextSequence(key string) (uint64, error) {
	var current uint64
	raw, err := s.db.Get([]byte(key))
	if err == nil {
		parsed, parseErr := strconv.ParseUint(string(raw), 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("lendstate: corrupt sequence %s: %w", key, parseErr)
		}
		current = parsed
	} else if err != storage.ErrNotFound {
		return 0, err
	}
	next := current + 1
	if err := s.db.Put([]byte(key), []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}

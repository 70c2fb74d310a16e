package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"lendbook/native/bank"
	"lendbook/native/lend"
	"lendbook/storage"
	"lendbook/storage/lendstate"
)

const (
	testLender   = "0x000000000000000000000000000000000000000a"
	testBorrower = "0x000000000000000000000000000000000000000b"
)

type testHarness struct {
	server    *httptest.Server
	token     *bank.Token
	positions *bank.Positions
	now       int64
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	db := storage.NewMemDB()
	escrow := common.BytesToAddress([]byte{0xEE})
	feeRecipient := common.BytesToAddress([]byte{0xFD})

	token := bank.NewToken(db, escrow)
	positions := bank.NewPositions(db, escrow)

	engine := lend.NewEngine(escrow, feeRecipient)
	engine.SetState(lendstate.New(db))
	engine.SetTokenLedger(token)
	engine.SetPositionLedger(positions)

	h := &testHarness{token: token, positions: positions, now: 1_000_000}
	engine.SetNowFunc(func() int64 { return h.now })

	server := NewServer(engine, nil)
	h.server = httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(h.server.Close)

	// Fund the lender and the borrower's collateral position.
	require.NoError(t, token.Mint(common.HexToAddress(testLender), big.NewInt(1000)))
	require.NoError(t, token.Approve(common.HexToAddress(testLender), escrow, big.NewInt(1000)))
	require.NoError(t, positions.Mint(common.HexToAddress(testBorrower), big.NewInt(1), big.NewInt(500)))
	positions.SetApprovalForAll(common.HexToAddress(testBorrower), escrow, true)
	require.NoError(t, token.Approve(common.HexToAddress(testBorrower), escrow, big.NewInt(10_000)))
	return h
}

func (h *testHarness) post(t *testing.T, body string) *RPCResponse {
	t.Helper()
	resp, err := http.Post(h.server.URL, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	out := new(RPCResponse)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return out
}

func (h *testHarness) call(t *testing.T, method string, params interface{}) *RPCResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	req, err := json.Marshal(RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  []json.RawMessage{raw},
		ID:      1,
	})
	require.NoError(t, err)
	return h.post(t, string(req))
}

func decodeResult(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected rpc error: %+v", resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestOfferLifecycleOverRPC(t *testing.T) {
	h := newTestHarness(t)

	resp := h.call(t, "lend_offer", offerParams{
		Lender:            testLender,
		LoanAmount:        "1000",
		Rate:              "1050000000000000000",
		PositionIDs:       []string{"1"},
		CollateralAmounts: []string{"500"},
		MinimumLoanAmount: "100",
		Duration:          7 * 86_400,
	})
	var offer lend.Offer
	decodeResult(t, resp, &offer)
	require.Equal(t, uint64(1), offer.ID)

	resp = h.call(t, "lend_accept", acceptParams{
		Borrower:         testBorrower,
		OfferID:          offer.ID,
		PositionID:       "1",
		CollateralAmount: "250",
	})
	var loan lend.Loan
	decodeResult(t, resp, &loan)
	require.Equal(t, uint64(1), loan.ID)
	require.Equal(t, "500", loan.LoanAmount.String())

	h.now += 2
	resp = h.call(t, "lend_amountOwed", lookupParams{LoanID: loan.ID, Timestamp: h.now})
	var owed map[string]string
	decodeResult(t, resp, &owed)
	require.Equal(t, "551", owed["amountOwed"])

	// Top the borrower up to cover the accrued interest and settle.
	require.NoError(t, h.token.Mint(common.HexToAddress(testBorrower), big.NewInt(100)))
	resp = h.call(t, "lend_repay", repayParams{LoanID: loan.ID, Caller: testBorrower, PaybackTime: h.now})
	var repaid map[string]bool
	decodeResult(t, resp, &repaid)
	require.True(t, repaid["repaid"])

	resp = h.call(t, "lend_getLoan", lookupParams{LoanID: loan.ID})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)
}

func TestEngineErrorsSurfaceAsServerErrors(t *testing.T) {
	h := newTestHarness(t)
	resp := h.call(t, "lend_cancelOffer", cancelOfferParams{OfferID: 42, Caller: testLender})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	h := newTestHarness(t)
	resp := h.call(t, "lend_cancelOffer", cancelOfferParams{OfferID: 1, Caller: "not-an-address"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestMethodNotFound(t *testing.T) {
	h := newTestHarness(t)
	resp := h.call(t, "lend_unknown", lookupParams{})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestMalformedEnvelope(t *testing.T) {
	h := newTestHarness(t)

	resp := h.post(t, "{not json")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeParseError, resp.Error.Code)

	resp = h.post(t, `{"jsonrpc":"1.0","method":"lend_getOffer","params":[{}],"id":1}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	resp = h.post(t, `{"jsonrpc":"2.0","params":[{}],"id":1}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestParamsMustBeSingleObject(t *testing.T) {
	h := newTestHarness(t)
	resp := h.post(t, `{"jsonrpc":"2.0","method":"lend_getOffer","params":[],"id":1}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

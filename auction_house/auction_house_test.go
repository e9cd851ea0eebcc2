package auction_house

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"aptos-nft-auction/chain_client"
	"aptos-nft-auction/wallet_manager"
)

const testAccount = "0x2"

var testConfig = Config{ModuleAddress: DefaultModuleAddress}

type fakeChain struct {
	resource    *chain_client.Resource
	resourceErr error
	viewValues  []json.RawMessage
	viewErr     error
	viewCalls   []chain_client.ViewRequest
	waitErr     error
	waited      []string
}

func (c *fakeChain) GetAccountResource(ctx context.Context, address, resourceType string) (*chain_client.Resource, error) {
	if resourceType != testConfig.ResourceType() {
		return nil, errors.Errorf("unexpected resource type %s", resourceType)
	}
	return c.resource, c.resourceErr
}

func (c *fakeChain) View(ctx context.Context, request chain_client.ViewRequest) ([]json.RawMessage, error) {
	c.viewCalls = append(c.viewCalls, request)
	return c.viewValues, c.viewErr
}

func (c *fakeChain) WaitForTransaction(ctx context.Context, hash string) (*chain_client.Transaction, error) {
	c.waited = append(c.waited, hash)
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	return &chain_client.Transaction{Type: "user_transaction", Hash: hash, Success: true, Version: 11}, nil
}

type fakeWallet struct {
	payloads []chain_client.EntryFunctionPayload
	err      error
}

func (w *fakeWallet) Address() string {
	return testAccount
}

func (w *fakeWallet) SignAndSubmitTransaction(ctx context.Context, payload chain_client.EntryFunctionPayload) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.payloads = append(w.payloads, payload)
	return "0xhash", nil
}

func resourceWith(data string) *chain_client.Resource {
	return &chain_client.Resource{Type: testConfig.ResourceType(), Data: json.RawMessage(data)}
}

func TestResourceReader_Fetch(t *testing.T) {
	chain := &fakeChain{resource: resourceWith(`{"auctions":[{"nft_id":"1","seller":"0x3","start_price":"100","reserve_price":"10","duration":"3600","start_time":1700000000,"is_active":true,"highest_bid":"0","highest_bidder":"0x0"}]}`)}
	snapshot := NewResourceReader(testConfig, chain).Fetch(context.Background(), testAccount)

	want := []Auction{{
		NftID:         "1",
		Seller:        "0x3",
		StartPrice:    "100",
		ReservePrice:  "10",
		Duration:      "3600",
		StartTime:     "1700000000",
		IsActive:      true,
		HighestBid:    "0",
		HighestBidder: "0x0",
	}}
	if diff := cmp.Diff(want, snapshot.Auctions); diff != "" {
		t.Fatalf("auctions mismatch (-want +got):\n%s", diff)
	}
	if snapshot.Auctions[0].Status() != "Active" || snapshot.Strategy != StrategyResource {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestResourceReader_MalformedOrAbsent(t *testing.T) {
	cases := map[string]*fakeChain{
		"empty array":      {resource: resourceWith(`{"auctions":[]}`)},
		"missing field":    {resource: resourceWith(`{"other":1}`)},
		"not an array":     {resource: resourceWith(`{"auctions":{"nft_id":"1"}}`)},
		"null field":       {resource: resourceWith(`{"auctions":null}`)},
		"data not object":  {resource: resourceWith(`[1,2]`)},
		"malformed record": {resource: resourceWith(`{"auctions":[{"is_active":"yes"}]}`)},
		"nil resource":     {},
		"not found": {resourceErr: &chain_client.APIError{
			StatusCode: http.StatusNotFound,
			ErrorCode:  "resource_not_found",
		}},
		"rpc error": {resourceErr: errors.New("connection refused")},
	}
	for name, chain := range cases {
		snapshot := NewResourceReader(testConfig, chain).Fetch(context.Background(), testAccount)
		if !snapshot.Empty() {
			t.Fatalf("%s: expected empty snapshot, got %+v", name, snapshot)
		}
		if snapshot.Notification != "" {
			t.Fatalf("%s: resource reader must not notify, got %q", name, snapshot.Notification)
		}
	}
}

func TestResourceReader_NoAccount(t *testing.T) {
	chain := &fakeChain{resourceErr: errors.New("must not be called")}
	snapshot := NewResourceReader(testConfig, chain).Fetch(context.Background(), "")
	if !snapshot.Empty() || snapshot.Account != "" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestViewReader_Fetch(t *testing.T) {
	for _, values := range []string{`[["1","2","30"]]`, `["1","2","30"]`, `[[1,2,30]]`} {
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(values), &raw); err != nil {
			t.Fatal(err)
		}
		chain := &fakeChain{viewValues: raw}
		snapshot := NewViewReader(testConfig, chain).Fetch(context.Background(), "")

		if diff := cmp.Diff([]AuctionID{1, 2, 30}, snapshot.AuctionIDs); diff != "" {
			t.Fatalf("%s: ids mismatch (-want +got):\n%s", values, diff)
		}
		call := chain.viewCalls[0]
		if call.Function != DefaultModuleAddress+"::NFTMarketplace::get_active_auctions" {
			t.Fatalf("unexpected function %s", call.Function)
		}
		if diff := cmp.Diff([]interface{}{DefaultModuleAddress}, call.Arguments); diff != "" {
			t.Fatalf("unexpected arguments (-want +got):\n%s", diff)
		}
	}
}

func TestViewReader_InvalidElement(t *testing.T) {
	for _, values := range []string{`[["1","abc"]]`, `[[1, true]]`, `[["1", {"id":2}]]`, `[[-1]]`, `[[1.5]]`} {
		var raw []json.RawMessage
		if err := json.Unmarshal([]byte(values), &raw); err != nil {
			t.Fatal(err)
		}
		reader := NewViewReader(testConfig, &fakeChain{viewValues: raw})

		if _, err := reader.FetchAuctionIDs(context.Background()); !errors.Is(err, ErrInvalidViewResult) {
			t.Fatalf("%s: expected ErrInvalidViewResult, got %v", values, err)
		}
		snapshot := reader.Fetch(context.Background(), "")
		if !snapshot.Empty() || snapshot.Notification == "" {
			t.Fatalf("%s: expected empty snapshot with notification, got %+v", values, snapshot)
		}
	}
}

func TestViewReader_RPCError(t *testing.T) {
	snapshot := NewViewReader(testConfig, &fakeChain{viewErr: errors.New("timeout")}).Fetch(context.Background(), "")
	if !snapshot.Empty() || snapshot.Notification != fetchFailedNotification {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestPayloads(t *testing.T) {
	list := ListForAuctionPayload(testConfig, ListingParams{NftID: 7, StartPrice: 1000, ReservePrice: 100, Duration: 86400})
	wantList := chain_client.EntryFunctionPayload{
		Function:      DefaultModuleAddress + "::NFTMarketplace::list_nft_for_auction",
		TypeArguments: []string{},
		Arguments: []chain_client.Argument{
			chain_client.AddressArg(DefaultModuleAddress),
			chain_client.U64Arg(7),
			chain_client.U64Arg(1000),
			chain_client.U64Arg(100),
			chain_client.U64Arg(86400),
		},
	}
	if diff := cmp.Diff(wantList, list); diff != "" {
		t.Fatalf("list payload mismatch (-want +got):\n%s", diff)
	}

	bid := BidPayload(testConfig, 3, 250)
	if bid.Function != DefaultModuleAddress+"::NFTMarketplace::place_bid" ||
		cmp.Diff([]chain_client.Argument{chain_client.U64Arg(3), chain_client.U64Arg(250)}, bid.Arguments) != "" {
		t.Fatalf("unexpected bid payload %+v", bid)
	}

	finalize := FinalizePayload(testConfig, 3)
	if finalize.Function != DefaultModuleAddress+"::NFTMarketplace::finalize_auction" ||
		cmp.Diff([]chain_client.Argument{chain_client.U64Arg(3)}, finalize.Arguments) != "" {
		t.Fatalf("unexpected finalize payload %+v", finalize)
	}
}

type dispatchRecorder struct {
	refreshes int
	states    []DispatchState
}

func newRecordedDispatcher(wallet *fakeWallet, chain *fakeChain) (*Dispatcher, *dispatchRecorder) {
	rec := &dispatchRecorder{}
	var w wallet_manager.Wallet
	if wallet != nil {
		w = wallet
	}
	d := NewDispatcher(testConfig, w, chain, func(ctx context.Context) { rec.refreshes++ })
	d.OnStateChange(func(op Operation, state DispatchState) {
		rec.states = append(rec.states, state)
	})
	return d, rec
}

func TestDispatcher_Success(t *testing.T) {
	ops := map[Operation]func(d *Dispatcher) (*Receipt, error){
		OperationListForAuction: func(d *Dispatcher) (*Receipt, error) {
			return d.ListForAuction(context.Background(), ListingParams{NftID: 1, StartPrice: 10, ReservePrice: 1, Duration: 60})
		},
		OperationBid: func(d *Dispatcher) (*Receipt, error) {
			return d.Bid(context.Background(), 1, 5)
		},
		OperationFinalize: func(d *Dispatcher) (*Receipt, error) {
			return d.Finalize(context.Background(), 1)
		},
	}
	for op, run := range ops {
		wallet, chain := &fakeWallet{}, &fakeChain{}
		d, rec := newRecordedDispatcher(wallet, chain)

		receipt, err := run(d)
		if err != nil {
			t.Fatalf("%s: unexpected error %s", op, err.Error())
		}
		if receipt.Operation != op || receipt.Hash != "0xhash" || receipt.Version != 11 {
			t.Fatalf("%s: unexpected receipt %+v", op, receipt)
		}
		if rec.refreshes != 1 {
			t.Fatalf("%s: expected exactly one refresh, got %d", op, rec.refreshes)
		}
		if diff := cmp.Diff([]string{"0xhash"}, chain.waited); diff != "" {
			t.Fatalf("%s: wait mismatch (-want +got):\n%s", op, diff)
		}
		wantStates := []DispatchState{StateSubmitting, StateAwaitingConfirmation, StateConfirmed, StateIdle}
		if diff := cmp.Diff(wantStates, rec.states); diff != "" {
			t.Fatalf("%s: states mismatch (-want +got):\n%s", op, diff)
		}
	}
}

func TestDispatcher_SubmitFailure(t *testing.T) {
	wallet, chain := &fakeWallet{err: errors.New("user rejected the request")}, &fakeChain{}
	d, rec := newRecordedDispatcher(wallet, chain)

	if _, err := d.ListForAuction(context.Background(), ListingParams{NftID: 1}); err == nil {
		t.Fatal("expected error")
	}
	if rec.refreshes != 0 || len(chain.waited) != 0 {
		t.Fatalf("failed submission must not wait or refresh: %+v %v", rec, chain.waited)
	}
	if diff := cmp.Diff([]DispatchState{StateSubmitting, StateFailed, StateIdle}, rec.states); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_ConfirmationFailure(t *testing.T) {
	wallet := &fakeWallet{}
	chain := &fakeChain{waitErr: errors.Wrap(chain_client.ErrTransactionFailed, "Move abort")}
	d, rec := newRecordedDispatcher(wallet, chain)

	_, err := d.Bid(context.Background(), 1, 1)
	if !errors.Is(err, chain_client.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
	if rec.refreshes != 0 {
		t.Fatalf("failed confirmation must not refresh, got %d", rec.refreshes)
	}
	wantStates := []DispatchState{StateSubmitting, StateAwaitingConfirmation, StateFailed, StateIdle}
	if diff := cmp.Diff(wantStates, rec.states); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_NoWallet(t *testing.T) {
	d, rec := newRecordedDispatcher(nil, &fakeChain{})
	if _, err := d.Finalize(context.Background(), 1); !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("expected ErrWalletNotConnected, got %v", err)
	}
	if rec.refreshes != 0 || len(rec.states) != 0 {
		t.Fatalf("unexpected activity %+v", rec)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, ok := ParseStrategy("VIEW"); !ok || s != StrategyView {
		t.Fatalf("unexpected %s %v", s, ok)
	}
	if s, ok := ParseStrategy(""); !ok || s != StrategyResource {
		t.Fatalf("unexpected %s %v", s, ok)
	}
	if _, ok := ParseStrategy("graphql"); ok {
		t.Fatal("expected unknown strategy")
	}
}

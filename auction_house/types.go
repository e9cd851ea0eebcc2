package auction_house

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"aptos-nft-auction/chain_client"
)

// Quantity keeps a chain value in its textual form. The node sends u64 as
// strings but older module versions returned plain numbers.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

// Auction is one record of the AuctionHouse resource.
type Auction struct {
	NftID         Quantity `json:"nft_id"`
	Seller        string   `json:"seller"`
	StartPrice    Quantity `json:"start_price"`
	ReservePrice  Quantity `json:"reserve_price"`
	Duration      Quantity `json:"duration"`
	StartTime     Quantity `json:"start_time"`
	IsActive      bool     `json:"is_active"`
	HighestBid    Quantity `json:"highest_bid"`
	HighestBidder string   `json:"highest_bidder"`
}

func (a Auction) Status() string {
	if a.IsActive {
		return "Active"
	}
	return "Inactive"
}

type AuctionID uint64

type Strategy string

const (
	// StrategyResource reads the auctions embedded in the account's
	// AuctionHouse resource.
	StrategyResource Strategy = "resource"
	// StrategyView asks the module for active auction ids.
	StrategyView Strategy = "view"
)

func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyResource, "":
		return StrategyResource, true
	case StrategyView:
		return StrategyView, true
	}
	return "", false
}

// Snapshot is what the page renders. It is replaced wholesale on every
// fetch.
type Snapshot struct {
	Strategy     Strategy    `json:"strategy"`
	Account      string      `json:"account,omitempty"`
	Auctions     []Auction   `json:"auctions,omitempty"`
	AuctionIDs   []AuctionID `json:"auction_ids,omitempty"`
	FetchedAt    time.Time   `json:"fetched_at"`
	Notification string      `json:"notification,omitempty"`
}

func (s Snapshot) Empty() bool {
	return len(s.Auctions) == 0 && len(s.AuctionIDs) == 0
}

type Config struct {
	ModuleAddress string
}

func (c Config) moduleAddress() string {
	if c.ModuleAddress == "" {
		return DefaultModuleAddress
	}
	return c.ModuleAddress
}

// FunctionID returns <module address>::NFTMarketplace::<name>.
func (c Config) FunctionID(name string) string {
	return chain_client.FunctionID{Address: c.moduleAddress(), Module: ModuleName, Name: name}.String()
}

func (c Config) ResourceType() string {
	return c.FunctionID(auctionHouseResource)
}

// ChainReader is the read side of the chain client.
type ChainReader interface {
	GetAccountResource(ctx context.Context, address, resourceType string) (*chain_client.Resource, error)
	View(ctx context.Context, request chain_client.ViewRequest) ([]json.RawMessage, error)
}

// TransactionWaiter blocks until a submitted transaction is committed.
type TransactionWaiter interface {
	WaitForTransaction(ctx context.Context, hash string) (*chain_client.Transaction, error)
}

// Reader turns chain state into a Snapshot. Fetch never fails: errors are
// logged and normalized to an empty snapshot.
type Reader interface {
	Strategy() Strategy
	Fetch(ctx context.Context, account string) Snapshot
}

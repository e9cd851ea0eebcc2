package auction_house

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"aptos-nft-auction/chain_client"
	"aptos-nft-auction/logger"
)

var ErrInvalidViewResult = errors.New("view function returned an unexpected value")

const fetchFailedNotification = "Failed to fetch auctions. Please try again."

// ResourceReader reads the auctions embedded in the connected account's
// AuctionHouse resource.
type ResourceReader struct {
	cfg   Config
	chain ChainReader
	now   func() time.Time
}

func NewResourceReader(cfg Config, chain ChainReader) *ResourceReader {
	return &ResourceReader{cfg: cfg, chain: chain, now: time.Now}
}

func (r *ResourceReader) Strategy() Strategy {
	return StrategyResource
}

// FetchAuctions returns an empty list, not an error, when the resource has
// no auctions array.
func (r *ResourceReader) FetchAuctions(ctx context.Context, account string) ([]Auction, error) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"component": "ResourceReader",
		"account":   account,
	})
	log.Info("Fetching auction resource", nil)

	resource, err := r.chain.GetAccountResource(ctx, account, r.cfg.ResourceType())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get auction resource")
	}
	if resource == nil {
		return []Auction{}, nil
	}
	log.Debug("Auction resource fetched", logger.Fields{
		"resource": logger.Lazy(func() string { return spew.Sdump(resource) }),
	})

	var data map[string]json.RawMessage
	if err := json.Unmarshal(resource.Data, &data); err != nil {
		log.Warn("Auction resource data is not an object", logger.Fields{"data": string(resource.Data)})
		return []Auction{}, nil
	}
	raw, ok := data[auctionsField]
	if !ok || !isJSONArray(raw) {
		log.Warn("Auction resource has no auctions array", nil)
		return []Auction{}, nil
	}
	var auctions []Auction
	if err := json.Unmarshal(raw, &auctions); err != nil {
		return nil, errors.Wrap(err, "failed to decode auctions")
	}
	if auctions == nil {
		auctions = []Auction{}
	}
	return auctions, nil
}

func (r *ResourceReader) Fetch(ctx context.Context, account string) Snapshot {
	snapshot := Snapshot{Strategy: StrategyResource, Account: account, FetchedAt: r.now()}
	if account == "" {
		return snapshot
	}
	auctions, err := r.FetchAuctions(ctx, account)
	if err != nil {
		logger.FromContext(ctx).Error("Error fetching auction resource", err, logger.Fields{
			"component": "ResourceReader",
			"account":   account,
		})
		return snapshot
	}
	snapshot.Auctions = auctions
	return snapshot
}

// ViewReader asks the module for the ids of active auctions.
type ViewReader struct {
	cfg   Config
	chain ChainReader
	now   func() time.Time
}

func NewViewReader(cfg Config, chain ChainReader) *ViewReader {
	return &ViewReader{cfg: cfg, chain: chain, now: time.Now}
}

func (r *ViewReader) Strategy() Strategy {
	return StrategyView
}

func (r *ViewReader) FetchAuctionIDs(ctx context.Context) ([]AuctionID, error) {
	values, err := r.chain.View(ctx, chain_client.ViewRequest{
		Function:      r.cfg.FunctionID(activeAuctionsView),
		TypeArguments: []string{},
		Arguments:     []interface{}{r.cfg.moduleAddress()},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call active auctions view")
	}
	return parseAuctionIDs(values)
}

// Fetch does not need the account: the ids live under the module address.
func (r *ViewReader) Fetch(ctx context.Context, account string) Snapshot {
	snapshot := Snapshot{Strategy: StrategyView, Account: account, FetchedAt: r.now()}
	ids, err := r.FetchAuctionIDs(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Error fetching active auctions", err, logger.Fields{
			"component": "ViewReader",
		})
		snapshot.Notification = fetchFailedNotification
		return snapshot
	}
	snapshot.AuctionIDs = ids
	return snapshot
}

// parseAuctionIDs accepts either the return values themselves or a single
// vector return value holding them.
func parseAuctionIDs(values []json.RawMessage) ([]AuctionID, error) {
	elements := values
	if len(values) == 1 && isJSONArray(values[0]) {
		var nested []json.RawMessage
		if err := json.Unmarshal(values[0], &nested); err != nil {
			return nil, errors.Wrap(ErrInvalidViewResult, err.Error())
		}
		elements = nested
	}
	ids := make([]AuctionID, 0, len(elements))
	for i, element := range elements {
		id, err := parseU64(element)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidViewResult, "element %d is %s", i, string(element))
		}
		ids = append(ids, AuctionID(id))
	}
	return ids, nil
}

func parseU64(raw json.RawMessage) (uint64, error) {
	raw = bytes.TrimSpace(raw)
	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return strconv.ParseUint(s, 10, 64)
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

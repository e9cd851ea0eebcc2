package auction_house

const (
	DefaultModuleAddress = "0xc80d98f378efe25cd34d2f561f5b4866ddb31e602db2ab3bc0c9ff6be91cd93c"
	ModuleName           = "NFTMarketplace"

	auctionHouseResource = "AuctionHouse"
	auctionsField        = "auctions"

	listNFTForAuctionFunction = "list_nft_for_auction"
	placeBidFunction          = "place_bid"
	finalizeAuctionFunction   = "finalize_auction"
	activeAuctionsView        = "get_active_auctions"
)

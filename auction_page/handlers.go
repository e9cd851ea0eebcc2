package auction_page

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"aptos-nft-auction/auction_house"
	"aptos-nft-auction/logger"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

const (
	modalList = "list"
	modalBid  = "bid"

	kindError   = "error"
	kindSuccess = "success"
)

type listForm struct {
	NftID        string
	StartPrice   string
	ReservePrice string
	Duration     string
}

type bidForm struct {
	AuctionID string
	Amount    string
}

type viewModel struct {
	Account          string
	WalletConfigured bool
	Strategy         string
	Snapshot         auction_house.Snapshot
	Notification     string
	NotificationKind string
	Modal            string
	ListForm         listForm
	BidForm          bidForm
}

type Handlers struct {
	page *Page
}

func NewHandlers(page *Page) *Handlers {
	return &Handlers{page: page}
}

func (h *Handlers) newViewModel() viewModel {
	snapshot := h.page.Snapshot()
	vm := viewModel{
		Account:          h.page.Account(),
		WalletConfigured: h.page.WalletConfigured(),
		Strategy:         string(snapshot.Strategy),
		Snapshot:         snapshot,
	}
	if snapshot.Notification != "" {
		vm.Notification = snapshot.Notification
		vm.NotificationKind = kindError
	}
	return vm
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, vm viewModel) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, vm); err != nil {
		logger.FromContext(r.Context()).Error("Failed to render page", err, nil)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// HandleIndex fetches on every page load.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.page.Refresh(r.Context())
	vm := h.newViewModel()
	switch r.URL.Query().Get("modal") {
	case modalList:
		vm.Modal = modalList
	case modalBid:
		vm.Modal = modalBid
		vm.BidForm.AuctionID = r.URL.Query().Get("auction")
	}
	h.render(w, r, http.StatusOK, vm)
}

func (h *Handlers) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if err := h.page.Connect(r.Context()); err != nil {
		vm := h.newViewModel()
		vm.Notification = "No wallet is configured for this page."
		vm.NotificationKind = kindError
		h.render(w, r, http.StatusConflict, vm)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	h.page.Disconnect(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) HandleListForAuction(w http.ResponseWriter, r *http.Request) {
	form := listForm{
		NftID:        formValue(r, "nft_id"),
		StartPrice:   formValue(r, "start_price"),
		ReservePrice: formValue(r, "reserve_price"),
		Duration:     formValue(r, "duration"),
	}
	vm := h.newViewModel()
	vm.Modal = modalList
	vm.ListForm = form

	params, err := parseListForm(form)
	if err != nil {
		vm.Notification = err.Error()
		vm.NotificationKind = kindError
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	receipt, err := h.page.ListForAuction(r.Context(), params)
	if err != nil {
		h.renderFailure(w, r, vm, "Failed to list NFT for auction.", err)
		return
	}
	h.renderSuccess(w, r, "Auction listed.", receipt)
}

func (h *Handlers) HandleBid(w http.ResponseWriter, r *http.Request) {
	form := bidForm{AuctionID: chi.URLParam(r, "auctionID"), Amount: formValue(r, "amount")}
	vm := h.newViewModel()
	vm.Modal = modalBid
	vm.BidForm = form

	auctionID, err := parseUint("auction id", form.AuctionID)
	var amount uint64
	if err == nil {
		amount, err = parseUint("amount", form.Amount)
	}
	if err != nil {
		vm.Notification = err.Error()
		vm.NotificationKind = kindError
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	receipt, err := h.page.Bid(r.Context(), auction_house.AuctionID(auctionID), amount)
	if err != nil {
		h.renderFailure(w, r, vm, "Failed to place bid.", err)
		return
	}
	h.renderSuccess(w, r, "Bid placed.", receipt)
}

func (h *Handlers) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	vm := h.newViewModel()
	auctionID, err := parseUint("auction id", chi.URLParam(r, "auctionID"))
	if err != nil {
		vm.Notification = err.Error()
		vm.NotificationKind = kindError
		h.render(w, r, http.StatusUnprocessableEntity, vm)
		return
	}
	receipt, err := h.page.Finalize(r.Context(), auction_house.AuctionID(auctionID))
	if err != nil {
		h.renderFailure(w, r, vm, "Failed to finalize auction.", err)
		return
	}
	h.renderSuccess(w, r, "Auction finalized.", receipt)
}

// renderFailure keeps the modal and the previous list as they were.
func (h *Handlers) renderFailure(w http.ResponseWriter, r *http.Request, vm viewModel, message string, err error) {
	logger.FromContext(r.Context()).Error(message, err, nil)
	status := http.StatusBadGateway
	if errors.Cause(err) == auction_house.ErrWalletNotConnected {
		message = "Connect a wallet first."
		status = http.StatusConflict
	}
	vm.Notification = message
	vm.NotificationKind = kindError
	h.render(w, r, status, vm)
}

func (h *Handlers) renderSuccess(w http.ResponseWriter, r *http.Request, message string, receipt *auction_house.Receipt) {
	vm := h.newViewModel()
	if vm.Notification == "" {
		vm.Notification = message + " Transaction " + receipt.Hash
		vm.NotificationKind = kindSuccess
	}
	h.render(w, r, http.StatusOK, vm)
}

func (h *Handlers) HandleAPIAuctions(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.page.Snapshot())
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

func parseUint(name, value string) (uint64, error) {
	if value == "" {
		return 0, errors.Errorf("%s is required", name)
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func parseListForm(form listForm) (auction_house.ListingParams, error) {
	var params auction_house.ListingParams
	var err error
	if params.NftID, err = parseUint("nft id", form.NftID); err != nil {
		return params, err
	}
	if params.StartPrice, err = parseUint("start price", form.StartPrice); err != nil {
		return params, err
	}
	if params.ReservePrice, err = parseUint("reserve price", form.ReservePrice); err != nil {
		return params, err
	}
	if params.Duration, err = parseUint("duration", form.Duration); err != nil {
		return params, err
	}
	return params, nil
}

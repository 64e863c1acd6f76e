// Package views renders the storefront HTML pages.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageItem    = "item.html"
	pageCart    = "cart.html"
	pageSuccess = "success.html"
	pageCancel  = "cancel.html"
)

type ItemPage struct {
	Item           *models.Item
	PriceDollars   string
	PublishableKey string
}

type CartPage struct {
	OrderID        uint
	Lines          []orders.LineSummary
	Totals         pricing.DollarTotals
	DiscountName   string
	TaxName        string
	PublishableKey string
}

type SuccessPage struct {
	OrderID uint
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	funcs := template.FuncMap{"dollars": pricing.FormatDollars}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{pageItem, pageCart, pageSuccess, pageCancel} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

func NewItemPage(item *models.Item, publishableKey string) ItemPage {
	return ItemPage{Item: item, PriceDollars: pricing.FormatDollars(item.Price), PublishableKey: publishableKey}
}

// NewCartPage prices order for display; a nil order renders the empty cart.
func NewCartPage(order *models.Order, publishableKey string) CartPage {
	page := CartPage{PublishableKey: publishableKey, Totals: pricing.Totals{}.Dollars()}
	if order == nil {
		return page
	}
	summary := orders.Summarize(order)
	page.OrderID = order.ID
	page.Lines = summary.Lines
	page.Totals = summary.Dollars
	if order.Discount != nil && order.Discount.IsActive {
		page.DiscountName = order.Discount.Name
	}
	if order.Tax != nil && order.Tax.IsActive {
		page.TaxName = order.Tax.Name
	}
	return page
}

func (r *Renderer) Item(w http.ResponseWriter, page ItemPage) error {
	return r.render(w, pageItem, page)
}

func (r *Renderer) Cart(w http.ResponseWriter, page CartPage) error {
	return r.render(w, pageCart, page)
}

func (r *Renderer) Success(w http.ResponseWriter, page SuccessPage) error {
	return r.render(w, pageSuccess, page)
}

func (r *Renderer) Cancel(w http.ResponseWriter) error {
	return r.render(w, pageCancel, nil)
}

func (r *Renderer) render(w http.ResponseWriter, page string, data any) error {
	var buf bytes.Buffer
	if err := r.pages[page].ExecuteTemplate(&buf, page, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

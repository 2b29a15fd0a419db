package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/sangkips/mesa-api/internal/application/billing"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/printer"
)

// MessagingService builds ready-to-send chat links with a table's bill.
// Nothing is sent from the server.
type MessagingService struct {
	tables  *TableService
	orders  *OrderService
	menu    *MenuService
	barName string
}

// NewMessagingService creates a new messaging service
func NewMessagingService(tables *TableService, orders *OrderService, menu *MenuService, barName string) *MessagingService {
	return &MessagingService{tables: tables, orders: orders, menu: menu, barName: barName}
}

// BillLink is a wa.me deep link with the bill as its prefilled text.
type BillLink struct {
	URL     string `json:"url"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// BuildWhatsAppLink formats the table's bill and returns the link for phone.
// An empty phone falls back to the one on the table.
func (s *MessagingService) BuildWhatsAppLink(ctx context.Context, tableID, phone string) (*BillLink, error) {
	table, err := s.tables.Get(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if phone == "" {
		phone = table.Phone
	}
	digits := phoneDigits(phone)
	if len(digits) < 8 {
		return nil, apperror.NewInvalidInputError("Phone number %q is not valid", phone)
	}

	orders, err := s.orders.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	prices, err := s.menu.PriceLookup(ctx)
	if err != nil {
		return nil, err
	}

	before := billing.TableTotalBeforeDiscount(orders, prices)
	after := billing.AfterDiscount(before, table.Discount)
	remaining := billing.Remaining(after, table.AmountPaid, 0)

	var sb strings.Builder
	if s.barName != "" {
		fmt.Fprintf(&sb, "*%s*\n", s.barName)
	}
	fmt.Fprintf(&sb, "Olá, %s! Segue sua conta:\n\n", table.ClientName)
	for _, l := range billing.Lines(orders, prices) {
		fmt.Fprintf(&sb, "%sx %s - R$ %.2f\n", printer.FormatQuantity(l.Quantity), l.Name, l.Total)
	}
	fmt.Fprintf(&sb, "\nSubtotal: R$ %.2f\n", before)
	if table.Discount > 0 {
		fmt.Fprintf(&sb, "Desconto: R$ %.2f\n", table.Discount)
	}
	if table.AmountPaid > 0 {
		fmt.Fprintf(&sb, "Pago: R$ %.2f\n", table.AmountPaid)
	}
	fmt.Fprintf(&sb, "*Total a pagar: R$ %.2f*", remaining)

	msg := sb.String()
	return &BillLink{
		URL:     "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20"),
		Phone:   digits,
		Message: msg,
	}, nil
}

func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sangkips/mesa-api/internal/application/billing"
	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/apperror"
	"github.com/sangkips/mesa-api/pkg/printer"
	"golang.org/x/sync/errgroup"
)

// PrinterService builds bills and order tickets and sends them to the
// thermal printer.
type PrinterService struct {
	printer     printer.Printer
	tableRepo   repository.TableRepository
	orderRepo   repository.OrderRepository
	historyRepo repository.HistoryRepository
	menu        *MenuService
	header      entity.ReceiptHeader
	printerType string
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	tableRepo repository.TableRepository,
	orderRepo repository.OrderRepository,
	historyRepo repository.HistoryRepository,
	menu *MenuService,
	header entity.ReceiptHeader,
	printerType string,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		tableRepo:   tableRepo,
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		menu:        menu,
		header:      header,
		printerType: printerType,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// TestPrint sends a test page to the printer.
// Returns the receipt data so the handler can return it as JSON when printer is disabled.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header:     s.header,
		ReceiptNo:  "TEST-001",
		Date:       time.Now().Format("2006-01-02 15:04"),
		Cashier:    "System",
		ClientName: "Printer test",
		Items: []entity.ReceiptItem{
			{Name: "Test Item 1", Quantity: 1, UnitPrice: 10.00, Total: 10.00},
			{Name: "Test Item 2", Quantity: 2, UnitPrice: 5.00, Total: 10.00},
		},
		SubTotal: 20.00,
		Total:    20.00,
		Due:      20.00,
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// BuildBill composes the current bill of an open table. The table, its
// orders and the menu are read concurrently.
func (s *PrinterService) BuildBill(ctx context.Context, tableID string, split int) (*entity.Receipt, error) {
	var (
		table  *entity.Table
		orders []entity.Order
		prices billing.PriceLookup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tableRepo.GetByID(gctx, tableID)
		if err != nil {
			return storeErr("read table "+tableID, err)
		}
		if t == nil {
			return apperror.NewNotFoundError("Table " + tableID)
		}
		table = t
		return nil
	})
	g.Go(func() error {
		o, err := s.orderRepo.ListByTable(gctx, tableID)
		if err != nil {
			return storeErr("read orders of table "+tableID, err)
		}
		orders = o
		return nil
	})
	g.Go(func() error {
		p, err := s.menu.PriceLookup(gctx)
		prices = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := billing.Calculate(billing.Input{
		Orders:     orders,
		Prices:     prices,
		Discount:   table.Discount,
		PriorPaid:  table.AmountPaid,
		SplitCount: split,
	})
	if err != nil {
		return nil, apperror.NewInvalidInputError("Bill of table %q: %v", table.ClientName, err)
	}

	receipt := &entity.Receipt{
		Header:     s.header,
		Date:       time.Now().Format("2006-01-02 15:04"),
		TableID:    table.ID,
		ClientName: table.ClientName,
		SubTotal:   summary.BeforeDiscount,
		Discount:   summary.Discount,
		Total:      summary.AfterDiscount,
		Paid:       summary.Paid,
		Due:        summary.Remaining,
	}
	if summary.SplitCount > 1 {
		receipt.Split = summary.SplitCount
		receipt.PerPerson = summary.PerSplit
	}
	for _, l := range summary.Lines {
		receipt.Items = append(receipt.Items, entity.ReceiptItem{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}
	return receipt, nil
}

// PrintBill prints the current bill of a table.
func (s *PrinterService) PrintBill(ctx context.Context, tableID string, split int, cashier string) (*entity.Receipt, error) {
	receipt, err := s.BuildBill(ctx, tableID, split)
	if err != nil {
		return nil, err
	}
	receipt.Cashier = cashier
	if err := s.printer.Print(ctx, FormatReceipt(receipt)); err != nil {
		log.Printf("Printer error (table %s): %v", tableID, err)
		return receipt, fmt.Errorf("failed to print bill: %w", err)
	}
	return receipt, nil
}

// PrintHistory reprints a closed bill from the archive.
func (s *PrinterService) PrintHistory(ctx context.Context, historyID string) (*entity.Receipt, error) {
	entry, err := s.historyRepo.GetByID(ctx, historyID)
	if err != nil {
		return nil, storeErr("read bill "+historyID, err)
	}
	if entry == nil {
		return nil, apperror.NewNotFoundError("Bill " + historyID)
	}

	var paid float64
	for _, p := range entry.PaymentHistory {
		paid = billing.Sum(paid, p.Amount)
	}
	receipt := &entity.Receipt{
		Header:     s.header,
		ReceiptNo:  entry.ReceiptNo,
		Date:       entry.ClosedAt.Format("2006-01-02 15:04"),
		Cashier:    entry.ClosedBy,
		TableID:    entry.TableID,
		ClientName: entry.ClientName,
		SubTotal:   entry.Subtotal,
		Discount:   entry.Discount,
		Total:      entry.Total,
		Paid:       paid,
	}
	for _, it := range entry.Items {
		receipt.Items = append(receipt.Items, entity.ReceiptItem(it))
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt)); err != nil {
		log.Printf("Printer error (bill %s): %v", historyID, err)
		return receipt, fmt.Errorf("failed to print bill: %w", err)
	}
	return receipt, nil
}

// PrintOrderTicket prints the bar/kitchen ticket of one order.
func (s *PrinterService) PrintOrderTicket(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, storeErr("read order "+orderID, err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order " + orderID)
	}
	table, err := s.tableRepo.GetByID(ctx, order.TableID)
	if err != nil {
		return nil, storeErr("read table "+order.TableID, err)
	}
	client := order.TableID
	if table != nil {
		client = table.ClientName
	}

	if err := s.printer.Print(ctx, FormatOrderTicket(order, client)); err != nil {
		log.Printf("Printer error (order %s): %v", orderID, err)
		return order, fmt.Errorf("failed to print order ticket: %w", err)
	}
	return order, nil
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt) []byte {
	doc := printer.NewDocument(32) // 58mm paper = 32 chars

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	if r.ReceiptNo != "" {
		doc.KeyValue("Receipt:", r.ReceiptNo)
	}
	doc.KeyValue("Date:", r.Date).
		KeyValue("Client:", r.ClientName)
	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, fmt.Sprintf("%.2f", item.Total))
		if item.Quantity > 1 {
			doc.TextF("  @ %.2f each", item.UnitPrice)
		}
	}

	doc.Separator('-')

	// Totals
	doc.KeyValue("Subtotal:", fmt.Sprintf("%.2f", r.SubTotal))
	if r.Discount > 0 {
		doc.KeyValue("Discount:", fmt.Sprintf("-%.2f", r.Discount))
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", fmt.Sprintf("%.2f", r.Total)).
		SetBold(false)

	if r.Paid > 0 {
		doc.KeyValue("Paid:", fmt.Sprintf("%.2f", r.Paid))
	}
	if r.Due > 0 {
		doc.KeyValue("Due:", fmt.Sprintf("%.2f", r.Due))
	}
	if r.Split > 1 {
		doc.KeyValue(fmt.Sprintf("Per person (%d):", r.Split), fmt.Sprintf("%.2f", r.PerPerson))
	}

	doc.Separator('-')

	// Footer
	doc.SetAlign(printer.AlignCenter).
		FeedLines(1).
		Text("Obrigado e volte sempre!").
		FeedLines(1).
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// FormatOrderTicket converts an order into the ticket the bar works from.
func FormatOrderTicket(o *entity.Order, client string) []byte {
	doc := printer.NewDocument(32)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(client).
		SetFontSize(printer.FontNormal).
		SetBold(false).
		Text(o.CreatedAt.Format("15:04")).
		SetAlign(printer.AlignLeft).
		Separator('-')

	for _, it := range o.Items {
		doc.SetBold(true).
			TextF("%s x %s", printer.FormatQuantity(it.Quantity), it.ItemName).
			SetBold(false)
		if it.Note != "" {
			doc.TextF("  > %s", it.Note)
		}
	}

	doc.Separator('-').
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

package stub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/billing-console/internal/models"
)

// snakeBill is the bill layout some serializers of the billing service emit
type snakeBill struct {
	ID          *int64           `json:"id,omitempty"`
	CustomerID  int64            `json:"customer_id"`
	ProductID   int64            `json:"product_id"`
	Quantity    int              `json:"quantity"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
}

func (s *Server) listBills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wrap(s.billsWhere(func(models.Bill) bool { return true })))
}

func (s *Server) listBillsByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := pathID(r, "customerId")
	writeJSON(w, http.StatusOK, s.wrap(s.billsWhere(func(b models.Bill) bool { return b.CustomerID == customerID })))
}

func (s *Server) billsWhere(keep func(models.Bill) bool) []models.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := []models.Bill{}
	for _, id := range sortedKeys(s.bills) {
		if b := s.bills[id]; keep(b) {
			bills = append(bills, b)
		}
	}
	return bills
}

// wrap renders a bill collection in the configured envelope.
func (s *Server) wrap(bills []models.Bill) any {
	var items any = bills
	if s.opts.SnakeCase {
		snake := make([]snakeBill, 0, len(bills))
		for _, b := range bills {
			snake = append(snake, snakeBill(b))
		}
		items = snake
	}

	switch s.opts.Envelope {
	case EnvelopeContent:
		return map[string]any{
			"content":       items,
			"totalElements": len(bills),
			"totalPages":    1,
			"number":        0,
		}
	case EnvelopeEmbedded:
		return map[string]any{
			"_embedded": map[string]any{"bills": items},
			"_links":    map[string]any{"self": map[string]string{"href": "/api/bills"}},
			"page":      map[string]int{"size": len(bills), "totalElements": len(bills), "totalPages": 1, "number": 0},
		}
	default:
		return items
	}
}

func (s *Server) getBill(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bill, ok := s.bills[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "bill not found")
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// createBill prices the bill from the product and refuses unknown references.
func (s *Server) createBill(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid bill")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[req.ProductID]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown product")
		return
	}
	if _, ok := s.customers[req.CustomerID]; !ok {
		writeError(w, http.StatusBadRequest, "unknown customer")
		return
	}
	writeJSON(w, http.StatusOK, s.insertBill(req, product.Price))
}

func (s *Server) deleteBill(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := pathID(r, "id")
	if _, ok := s.bills[id]; !ok {
		writeError(w, http.StatusNotFound, "bill not found")
		return
	}
	delete(s.bills, id)
	w.WriteHeader(http.StatusNoContent)
}

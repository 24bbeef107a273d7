// Package stub serves in-memory customer, product and billing services
// for local runs and end-to-end tests of the console.
package stub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/models"
)

// List envelopes the stub can wrap bill collections in
const (
	EnvelopeArray    = "array"
	EnvelopeContent  = "content"
	EnvelopeEmbedded = "embedded"
)

type Options struct {
	Envelope  string
	SnakeCase bool
	Logger    *zap.Logger
}

type Server struct {
	opts Options
	now  func() time.Time

	mu        sync.RWMutex
	customers map[int64]models.Customer
	products  map[int64]models.Product
	bills     map[int64]models.Bill
	nextID    map[string]int64
}

func NewServer(opts Options) *Server {
	if opts.Envelope == "" {
		opts.Envelope = EnvelopeArray
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		opts:      opts,
		now:       time.Now,
		customers: make(map[int64]models.Customer),
		products:  make(map[int64]models.Product),
		bills:     make(map[int64]models.Bill),
		nextID:    make(map[string]int64),
	}
}

// Router registers every upstream endpoint on one gorilla/mux router.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)

	router.HandleFunc("/api/customers", s.listCustomers).Methods(http.MethodGet)
	router.HandleFunc("/api/customers", s.createCustomer).Methods(http.MethodPost)
	router.HandleFunc("/api/customers/{id:[0-9]+}", s.getCustomer).Methods(http.MethodGet)
	router.HandleFunc("/api/customers/{id:[0-9]+}", s.updateCustomer).Methods(http.MethodPut)
	router.HandleFunc("/api/customers/{id:[0-9]+}", s.deleteCustomer).Methods(http.MethodDelete)

	router.HandleFunc("/api/products", s.listProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products", s.createProduct).Methods(http.MethodPost)
	router.HandleFunc("/api/products/available", s.availableProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id:[0-9]+}", s.getProduct).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id:[0-9]+}", s.updateProduct).Methods(http.MethodPut)
	router.HandleFunc("/api/products/{id:[0-9]+}", s.deleteProduct).Methods(http.MethodDelete)

	router.HandleFunc("/api/bills", s.listBills).Methods(http.MethodGet)
	router.HandleFunc("/api/bills", s.createBill).Methods(http.MethodPost)
	router.HandleFunc("/api/bills/customer/{customerId:[0-9]+}", s.listBillsByCustomer).Methods(http.MethodGet)
	router.HandleFunc("/api/bills/{id:[0-9]+}", s.getBill).Methods(http.MethodGet)
	router.HandleFunc("/api/bills/{id:[0-9]+}", s.deleteBill).Methods(http.MethodDelete)

	router.Use(s.logRequests)
	return router
}

// Seed loads a small demo data set.
func (s *Server) Seed() {
	ada := s.AddCustomer(models.Customer{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0100"})
	alan := s.AddCustomer(models.Customer{Name: "Alan Turing", Email: "alan@example.com"})
	pen := s.AddProduct(models.Product{Name: "Fountain pen", Price: decimal.RequireFromString("12.50"), Quantity: 40})
	ink := s.AddProduct(models.Product{Name: "Ink bottle", Price: decimal.RequireFromString("4.75"), Quantity: 0})

	s.AddBill(models.CreateBillRequest{CustomerID: ada.ID, ProductID: pen.ID, Quantity: 2})
	s.AddBill(models.CreateBillRequest{CustomerID: alan.ID, ProductID: ink.ID, Quantity: 3})
}

func (s *Server) AddCustomer(c models.Customer) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.next("customer")
	s.customers[c.ID] = c
	return c
}

func (s *Server) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.next("product")
	s.products[p.ID] = p
	return p
}

// AddBill stores a bill without checking its references, so tests can
// build bills that point at missing customers or products.
func (s *Server) AddBill(req models.CreateBillRequest) models.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertBill(req, s.products[req.ProductID].Price)
}

func (s *Server) insertBill(req models.CreateBillRequest, price decimal.Decimal) models.Bill {
	id := s.next("bill")
	total := price.Mul(decimal.NewFromInt(int64(req.Quantity)))
	created := s.now().UTC().Truncate(time.Second)
	bill := models.Bill{
		ID:          &id,
		CustomerID:  req.CustomerID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		TotalAmount: &total,
		CreatedAt:   &created,
	}
	s.bills[id] = bill
	return bill
}

// next must be called with mu held
func (s *Server) next(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.opts.Logger.Debug("stub request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

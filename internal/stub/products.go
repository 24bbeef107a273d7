package stub

import (
	"encoding/json"
	"net/http"

	"github.com/prudhivi99/billing-console/internal/models"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.productsWhere(func(models.Product) bool { return true }))
}

func (s *Server) availableProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.productsWhere(func(p models.Product) bool { return p.Quantity > 0 }))
}

func (s *Server) productsWhere(keep func(models.Product) bool) []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := []models.Product{}
	for _, id := range sortedKeys(s.products) {
		if p := s.products[id]; keep(p) {
			products = append(products, p)
		}
	}
	return products
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[pathID(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil || product.Name == "" || product.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "name is required and quantity must not be negative")
		return
	}
	writeJSON(w, http.StatusCreated, s.AddProduct(product))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := pathID(r, "id")
	if _, ok := s.products[id]; !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	product.ID = id
	s.products[id] = product
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := pathID(r, "id")
	if _, ok := s.products[id]; !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	delete(s.products, id)
	w.WriteHeader(http.StatusNoContent)
}

package stub

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/prudhivi99/billing-console/internal/models"
)

// SeedFake adds n generated customers, products and bills. The same seed
// always produces the same data.
func (s *Server) SeedFake(n int, seed uint64) {
	faker := gofakeit.New(seed)

	customers := make([]int64, 0, n)
	products := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		addr := faker.Address()
		c := s.AddCustomer(models.Customer{
			Name:    faker.Name(),
			Email:   faker.Email(),
			Phone:   faker.Phone(),
			Address: addr.Address,
		})
		customers = append(customers, c.ID)

		p := s.AddProduct(models.Product{
			Name:        faker.ProductName(),
			Description: faker.ProductDescription(),
			Price:       decimal.NewFromFloat(faker.Price(1, 500)).Round(2),
			Quantity:    faker.IntRange(0, 100),
		})
		products = append(products, p.ID)
	}

	for i := 0; i < n; i++ {
		s.AddBill(models.CreateBillRequest{
			CustomerID: customers[faker.IntRange(0, n-1)],
			ProductID:  products[faker.IntRange(0, n-1)],
			Quantity:   faker.IntRange(1, 10),
		})
	}
}

// internal/domain/product/repository_port.go
package product

import "context"

// Source is the outbound port that fetches the full product list.
// The backend adapter implements it over GET /pizzas.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Finder resolves a product id to its catalog entry.
// "Not found" is reported through ok=false and is never an error.
type Finder interface {
	FindByID(id string) (Product, bool)
}

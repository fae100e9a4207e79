package repositories

import (
	"sort"
	"strings"

	"storefront/internal/models"
)

// productSortColumns maps the public sortBy values onto GORM columns. The bson
// field name is the key itself.
var productSortColumns = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"price":        "price",
	"sellingPrice": "selling_price",
	"title":        "title",
}

func productSortKey(sortBy string) string {
	if _, ok := productSortColumns[sortBy]; ok {
		return sortBy
	}
	return "createdAt"
}

func matchesProductFilter(p *models.Product, f models.ProductFilter) bool {
	if f.Collection != "" && !strings.EqualFold(p.Collection, f.Collection) {
		return false
	}
	if f.Stock != "" && p.Stock != f.Stock {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.MinPrice != nil && p.SellingPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.SellingPrice > *f.MaxPrice {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		found := false
		for _, hay := range []string{p.Title, p.Description, p.Collection, p.Colors} {
			if strings.Contains(strings.ToLower(hay), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortProducts(products []models.Product, sortBy string, asc bool) {
	less := func(a, b *models.Product) bool {
		switch productSortKey(sortBy) {
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "price":
			return a.Price < b.Price
		case "sellingPrice":
			return a.SellingPrice < b.SellingPrice
		case "title":
			return a.Title < b.Title
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if asc {
			return less(&products[i], &products[j])
		}
		return less(&products[j], &products[i])
	})
}

// paginate applies skip/limit to an in-memory result set. A zero limit means no limit.
func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	if skip > 0 {
		items = items[skip:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneProduct(p models.Product) models.Product {
	p.StockDetails = p.StockDetails.Clone()
	if p.ColorImages != nil {
		images := make(map[string][]string, len(p.ColorImages))
		for color, urls := range p.ColorImages {
			images[color] = append([]string(nil), urls...)
		}
		p.ColorImages = images
	}
	return p
}

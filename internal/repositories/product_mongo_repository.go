package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"storefront/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository is a MongoDB implementation of ProductRepository. Documents
// are addressed by their "id" field, never by _id.
type MongoProductRepository struct {
	products *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		products: db.Collection(productsCollection),
	}
}

func productMongoFilter(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Collection != "" {
		filter["collection"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Collection) + "$", Options: "i"}
	}
	if f.Stock != "" {
		filter["stock"] = f.Stock
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["sellingPrice"] = price
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"collection": rx},
			bson.M{"colors": rx},
		}
	}
	return filter
}

// GetAll retrieves the products matching filter and the total match count.
func (r *MongoProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	query := productMongoFilter(filter)

	total, err := r.products.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	direction := -1
	if filter.SortAsc {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: productSortKey(filter.SortBy), Value: direction}})
	if filter.Skip > 0 {
		opts.SetSkip(int64(filter.Skip))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.products.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its external ID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.products.FindOne(ctx, bson.M{"id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByIDs retrieves every listed product, ordered as ids.
func (r *MongoProductRepository) GetByIDs(ctx context.Context, ids []string, activeOnly bool) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	filter := bson.M{"id": bson.M{"$in": ids}}
	if activeOnly {
		filter["isActive"] = true
	}
	cursor, err := r.products.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	var found []models.Product
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return orderByIDs(found, ids), nil
}

// Create inserts a product. The unique index on "id" rejects duplicates.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if _, err := r.products.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product %s: %w", product.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces the stored document, keeping its _id.
func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.products.ReplaceOne(ctx, bson.M{"id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a product by its ID.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.products.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// AdjustStock applies delta to one cell with a single conditional update. The filter
// only matches when the cell holds at least -delta units; the pipeline then adds
// delta and recomputes the label from the new quantity.
func (r *MongoProductRepository) AdjustStock(ctx context.Context, id, size, color string, delta int) (*models.Product, error) {
	if !validDocumentKey(size) || !validDocumentKey(color) {
		return nil, fmt.Errorf("product %s %s/%s: %w", id, size, color, ErrStockCellNotFound)
	}
	path := stockQuantityPath(size, color)
	filter := bson.M{"id": id, path: bson.M{"$gte": -delta}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: path, Value: bson.D{{Key: "$add", Value: bson.A{"$" + path, delta}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: stockLabelExpr("$" + path)},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainStockMiss(ctx, id, size, color)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock for product %s: %w", id, err)
	}
	return &product, nil
}

// SetStock overwrites one cell; $set creates missing size and color branches.
func (r *MongoProductRepository) SetStock(ctx context.Context, id, size, color string, quantity int) (*models.Product, error) {
	if !validDocumentKey(size) || !validDocumentKey(color) {
		return nil, fmt.Errorf("product %s %s/%s: %w", id, size, color, ErrStockCellNotFound)
	}
	if quantity < 0 {
		quantity = 0
	}
	update := bson.M{"$set": bson.M{
		stockQuantityPath(size, color): quantity,
		"stock":                        models.StockStatusFor(quantity),
		"updatedAt":                    time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.products.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set stock for product %s: %w", id, err)
	}
	return &product, nil
}

// explainStockMiss works out why a conditional stock update matched nothing.
func (r *MongoProductRepository) explainStockMiss(ctx context.Context, id, size, color string) error {
	product, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	cell, ok := product.StockDetails.Cell(size, color)
	if !ok {
		return fmt.Errorf("product %s %s/%s: %w", id, size, color, ErrStockCellNotFound)
	}
	return fmt.Errorf("product %s %s/%s has %d: %w", id, size, color, cell.Quantity, ErrInsufficientStock)
}

func stockQuantityPath(size, color string) string {
	return "stockDetails." + size + "." + color + ".quantity"
}

// stockLabelExpr is the aggregation form of models.StockStatusFor.
func stockLabelExpr(quantity string) bson.D {
	return bson.D{{Key: "$switch", Value: bson.D{
		{Key: "branches", Value: bson.A{
			bson.D{
				{Key: "case", Value: bson.D{{Key: "$lte", Value: bson.A{quantity, 0}}}},
				{Key: "then", Value: string(models.StockOutOfStock)},
			},
			bson.D{
				{Key: "case", Value: bson.D{{Key: "$lt", Value: bson.A{quantity, models.LowStockThreshold}}}},
				{Key: "then", Value: string(models.StockLowStock)},
			},
		}},
		{Key: "default", Value: string(models.StockInStock)},
	}}}
}

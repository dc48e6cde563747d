package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendalivre/vendalivre-backend/pkg/db/models"
	"github.com/vendalivre/vendalivre-backend/pkg/enums"
	pkgerrors "github.com/vendalivre/vendalivre-backend/pkg/errors"
	"github.com/vendalivre/vendalivre-backend/pkg/pagination"
)

type stubProductsRepo struct {
	products map[uuid.UUID]*models.Product
}

func newStubProductsRepo() *stubProductsRepo {
	return &stubProductsRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (s *stubProductsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubProductsRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *stubProductsRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusActive {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductsRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Product, error) {
	var rows []models.Product
	for _, product := range s.products {
		if product.SellerID == sellerID {
			rows = append(rows, *product)
		}
	}
	return rows, nil
}

func (s *stubProductsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	product, ok := s.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		product.Name = name
	}
	if price, ok := updates["price_cents"].(int64); ok {
		product.PriceCents = price
	}
	if status, ok := updates["status"].(enums.ProductStatus); ok {
		product.Status = status
	}
	return nil
}

func newProductsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestCreateProduct(t *testing.T) {
	repo := newStubProductsRepo()
	svc := newProductsService(t, repo)

	dto, err := svc.Create(context.Background(), CreateProductInput{
		SellerID:   uuid.New(),
		Name:       "  Curso de Go  ",
		Type:       enums.ProductTypeCourse,
		PriceCents: 19900,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Name != "Curso de Go" {
		t.Fatalf("name not trimmed: %q", dto.Name)
	}
	if dto.Status != enums.ProductStatusActive {
		t.Fatalf("new products must be active, got %s", dto.Status)
	}
	if dto.PriceDisplay != "199.00" {
		t.Fatalf("unexpected display %q", dto.PriceDisplay)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newProductsService(t, newStubProductsRepo())

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"empty name", CreateProductInput{SellerID: uuid.New(), PriceCents: 1000}},
		{"zero price", CreateProductInput{SellerID: uuid.New(), Name: "Ebook"}},
		{"bad type", CreateProductInput{SellerID: uuid.New(), Name: "Ebook", PriceCents: 1000, Type: "webinar"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestUpdateProductOwnership(t *testing.T) {
	repo := newStubProductsRepo()
	svc := newProductsService(t, repo)

	sellerID := uuid.New()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Name:       "Curso",
		Status:     enums.ProductStatusActive,
		PriceCents: 1000,
	}
	repo.products[product.ID] = product

	newPrice := int64(2000)
	dto, err := svc.Update(context.Background(), sellerID, product.ID, UpdateProductInput{PriceCents: &newPrice})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dto.PriceCents != 2000 {
		t.Fatalf("price not updated: %d", dto.PriceCents)
	}

	_, err = svc.Update(context.Background(), uuid.New(), product.ID, UpdateProductInput{PriceCents: &newPrice})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign seller, got %v", err)
	}
}

func TestGetPublicHidesInactive(t *testing.T) {
	repo := newStubProductsRepo()
	svc := newProductsService(t, repo)

	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		Name:       "Curso",
		Status:     enums.ProductStatusInactive,
		PriceCents: 1000,
	}
	repo.products[product.ID] = product

	_, err := svc.GetPublic(context.Background(), product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
}

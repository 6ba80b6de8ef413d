package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

var (
	_ inventory.ProductCatalog    = (*Catalog)(nil)
	_ inventory.SupplierDirectory = (*Catalog)(nil)
)

// Catalog catálogo de productos y proveedor preferido en memoria.
type Catalog struct {
	mu        sync.RWMutex
	products  map[string]*entity.ProductRef
	suppliers map[string]entity.SupplierOffer
}

// NewCatalog catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		products:  make(map[string]*entity.ProductRef),
		suppliers: make(map[string]entity.SupplierOffer),
	}
}

// PutProduct registra o reemplaza un producto.
func (c *Catalog) PutProduct(p *entity.ProductRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.products[p.ID] = &cp
}

// SetPreferredSupplier asigna el proveedor preferido de un producto.
func (c *Catalog) SetPreferredSupplier(productID string, offer entity.SupplierOffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppliers[productID] = offer
}

func (c *Catalog) get(companyID, productID string) *entity.ProductRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok || p.CompanyID != companyID {
		return nil
	}
	cp := *p
	return &cp
}

func (c *Catalog) IsTracked(_ context.Context, companyID, productID string) (bool, error) {
	p := c.get(companyID, productID)
	return p != nil && p.IsTracked, nil
}

func (c *Catalog) GetReorderThresholds(_ context.Context, companyID, productID string) (entity.ReorderThresholds, error) {
	p := c.get(companyID, productID)
	if p == nil {
		return entity.ReorderThresholds{}, domain.ErrNotFound
	}
	return p.Thresholds, nil
}

// ListTracked productos con control de inventario, por SKU.
func (c *Catalog) ListTracked(_ context.Context, companyID string) ([]*entity.ProductRef, error) {
	c.mu.RLock()
	var out []*entity.ProductRef
	for _, p := range c.products {
		if p.CompanyID == companyID && p.IsTracked {
			cp := *p
			out = append(out, &cp)
		}
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (c *Catalog) GetPreferredSupplier(_ context.Context, companyID, productID string) (*entity.SupplierOffer, error) {
	if c.get(companyID, productID) == nil {
		return nil, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	offer, ok := c.suppliers[productID]
	if !ok {
		return nil, nil
	}
	return &offer, nil
}

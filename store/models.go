package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is a storefront managed through the console.
type Service struct {
	bun.BaseModel `bun:"table:services,alias:svc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	Label         string     `bun:"label,notnull" json:"label"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`

	Categories []*ServiceCategory `bun:"rel:has-many,join:id=service_id" json:"categories,omitempty"`
}

// ServiceCategory is a navigation section of a service. IsMain marks the
// category shown on the service landing page.
type ServiceCategory struct {
	bun.BaseModel `bun:"table:service_categories,alias:scat"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name,notnull" json:"name"`
	Label         string    `bun:"label,notnull" json:"label"`
	IsMain        bool      `bun:"is_main,default:false" json:"is_main"`
	ServiceID     uuid.UUID `bun:"service_id,notnull,type:uuid" json:"service_id"`
}

// Banner is a storefront hero banner with an ordered image set.
type Banner struct {
	bun.BaseModel `bun:"table:banners,alias:bnr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	Images        []string   `bun:"images,array,notnull" json:"images"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Category is a product category; subcategories reference their parent
// and cascade with it.
type Category struct {
	bun.BaseModel    `bun:"table:store_categories,alias:cat"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name             string     `bun:"name,notnull" json:"name"`
	ParentCategoryID *uuid.UUID `bun:"parent_category_id,nullzero,type:uuid" json:"parent_category_id,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Color is a product color swatch; Value holds the hex code.
type Color struct {
	bun.BaseModel `bun:"table:store_colors,alias:clr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	Value         string     `bun:"value,notnull" json:"value"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Brand is a product brand.
type Brand struct {
	bun.BaseModel `bun:"table:store_brands,alias:brd"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Product is a catalog item. Category, color, and brand rows cascade
// into their products on delete.
type Product struct {
	bun.BaseModel `bun:"table:store_products,alias:prd"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Price         int        `bun:"price,notnull" json:"price"`
	IsSale        bool       `bun:"is_sale" json:"is_sale"`
	SaleRate      int        `bun:"sale_rate" json:"sale_rate,omitempty"`
	IsSoldOut     bool       `bun:"is_sold_out,default:false" json:"is_sold_out"`
	Size          string     `bun:"size,notnull" json:"size"`
	Images        []string   `bun:"images,array,notnull" json:"images"`
	CategoryID    uuid.UUID  `bun:"category_id,notnull,type:uuid" json:"category_id"`
	ColorID       uuid.UUID  `bun:"color_id,notnull,type:uuid" json:"color_id"`
	BrandID       uuid.UUID  `bun:"brand_id,notnull,type:uuid" json:"brand_id"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Color    *Color    `bun:"rel:belongs-to,join:color_id=id" json:"color,omitempty"`
	Brand    *Brand    `bun:"rel:belongs-to,join:brand_id=id" json:"brand,omitempty"`
}

// SalePrice applies the sale rate when the product is on sale.
func (p *Product) SalePrice() int {
	if p == nil {
		return 0
	}
	if !p.IsSale || p.SaleRate <= 0 {
		return p.Price
	}
	return p.Price - p.Price*p.SaleRate/100
}

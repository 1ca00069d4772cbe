// Package store defines the persistence contract of the back office. The
// engine never sees SQL; pgstore and sqlstore implement these interfaces.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicate is returned by inserts that hit a natural-key unique constraint.
	ErrDuplicate = errors.New("duplicate natural key")
	ErrNotFound  = errors.New("record not found")
)

// Order line statuses. Only lines not yet completed take part in
// manufacturer backfill.
const (
	OrderLinePending   = "pending"
	OrderLineCompleted = "completed"
)

const UploadKindMall = "mall"

type Manufacturer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	NameKey     string    `json:"-"`
	ContactName string    `json:"contactName"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Memo        string    `json:"memo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ManufacturerPatch holds only the columns to overwrite; nil leaves a column as is.
type ManufacturerPatch struct {
	ContactName *string
	Phone       *string
	Email       *string
	Address     *string
	Memo        *string
}

type Product struct {
	ID             int64            `json:"id"`
	ProductCode    string           `json:"productCode"`
	CodeKey        string           `json:"-"`
	ProductName    string           `json:"productName"`
	OptionName     string           `json:"optionName"`
	ManufacturerID *int64           `json:"manufacturerId,omitempty"`
	Cost           *decimal.Decimal `json:"cost,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Memo           string           `json:"memo"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type ProductPatch struct {
	ProductName    *string
	OptionName     *string
	ManufacturerID *int64
	Cost           *decimal.Decimal
	Price          *decimal.Decimal
	Memo           *string
}

type OrderLine struct {
	ID             int64  `json:"id"`
	UploadID       int64  `json:"uploadId"`
	SourceRow      int    `json:"sourceRow"`
	OrderNumber    string `json:"orderNumber"`
	OrderDate      string `json:"orderDate"`
	ProductCode    string `json:"productCode"`
	ProductKey     string `json:"-"`
	ProductName    string `json:"productName"`
	OptionName     string `json:"optionName"`
	Quantity       int    `json:"quantity"`
	RecipientName  string `json:"recipientName"`
	RecipientPhone string `json:"recipientPhone"`
	Address        string `json:"address"`
	PostalCode     string `json:"postalCode"`
	DeliveryMemo   string `json:"deliveryMemo"`
	ManufacturerID *int64 `json:"manufacturerId,omitempty"`
	Status         string `json:"status"`
}

// Upload is one ingested shopping-mall file. Snapshot holds the versioned
// source snapshot JSON; the original bytes are not kept.
type Upload struct {
	ID           int64     `json:"id"`
	Kind         string    `json:"kind"`
	MallID       string    `json:"mallId"`
	FileName     string    `json:"fileName"`
	FileHash     string    `json:"fileHash"`
	UploadedBy   string    `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
	TotalRows    int       `json:"totalRows"`
	AcceptedRows int       `json:"acceptedRows"`
	Snapshot     []byte    `json:"-"`
}

// Template is the per-partner shopping-mall configuration.
type Template struct {
	MallID         string            `json:"mallId"`
	DisplayName    string            `json:"displayName"`
	HeaderRow      int               `json:"headerRow"`
	DataStartRow   int               `json:"dataStartRow"`
	ColumnMappings map[string]string `json:"columnMappings"`
	FixedValues    map[string]string `json:"fixedValues"`
	ExportConfig   json.RawMessage   `json:"exportConfig"`
	Enabled        bool              `json:"enabled"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type ManufacturerStore interface {
	ListManufacturers(ctx context.Context) ([]Manufacturer, error)
	FindManufacturerByKey(ctx context.Context, nameKey string) (*Manufacturer, error)
	InsertManufacturer(ctx context.Context, m *Manufacturer) (int64, error)
	UpdateManufacturer(ctx context.Context, id int64, p ManufacturerPatch) error
}

type ProductStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	FindProductByKey(ctx context.Context, codeKey string) (*Product, error)
	InsertProduct(ctx context.Context, p *Product) (int64, error)
	UpdateProduct(ctx context.Context, id int64, p ProductPatch) error
	// ManufacturerIDsByProductKeys returns the manufacturer of every product
	// in codeKeys that has one.
	ManufacturerIDsByProductKeys(ctx context.Context, codeKeys []string) (map[string]int64, error)
}

type OrderLineStore interface {
	// BackfillManufacturer stamps manufacturerID on open order lines of
	// productKey that have none yet.
	BackfillManufacturer(ctx context.Context, productKey string, manufacturerID int64) (int64, error)
	// BackfillAllManufacturers repeats BackfillManufacturer for every product
	// that has a manufacturer.
	BackfillAllManufacturers(ctx context.Context) (int64, error)
	ListOrderLines(ctx context.Context, uploadID int64) ([]OrderLine, error)
}

type UploadStore interface {
	// SaveMallUpload writes the upload and its order lines atomically.
	SaveMallUpload(ctx context.Context, u *Upload, lines []OrderLine) (int64, error)
	GetUpload(ctx context.Context, id int64) (*Upload, error)
	FindUploadByHash(ctx context.Context, mallID, fileHash string) (*Upload, error)
	ListUploads(ctx context.Context, mallID string, limit, offset int) ([]Upload, int, error)
}

type TemplateStore interface {
	GetTemplate(ctx context.Context, mallID string) (*Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	SaveTemplate(ctx context.Context, t *Template) error
}

// Store is everything the back office persists.
type Store interface {
	ManufacturerStore
	ProductStore
	OrderLineStore
	UploadStore
	TemplateStore
	Close() error
}

package ingest

// Kind selects the synonym dictionary and the mandatory-field rule of an import.
type Kind string

const (
	KindManufacturer Kind = "manufacturer"
	KindProduct      Kind = "product"
	KindMallOrder    Kind = "mallOrder"
)

// Field is a canonical field identifier. The set is closed: synonym files
// naming anything else are rejected.
type Field string

const (
	FieldName        Field = "name"
	FieldContactName Field = "contactName"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldAddress     Field = "address"
	FieldMemo        Field = "memo"

	FieldProductCode      Field = "productCode"
	FieldProductName      Field = "productName"
	FieldOptionName       Field = "optionName"
	FieldManufacturerName Field = "manufacturerName"
	FieldCost             Field = "cost"
	FieldPrice            Field = "price"

	FieldOrderNumber    Field = "orderNumber"
	FieldOrderDate      Field = "orderDate"
	FieldRecipientName  Field = "recipientName"
	FieldRecipientPhone Field = "recipientPhone"
	FieldPostalCode     Field = "postalCode"
	FieldQuantity       Field = "quantity"
	FieldDeliveryMemo   Field = "deliveryMemo"

	// FieldManufacturerID carries the resolved manufacturer reference of a
	// product; it never appears in a header.
	FieldManufacturerID Field = "manufacturerId"
)

var knownFields = map[Field]struct{}{
	FieldName: {}, FieldContactName: {}, FieldPhone: {}, FieldEmail: {}, FieldAddress: {}, FieldMemo: {},
	FieldProductCode: {}, FieldProductName: {}, FieldOptionName: {}, FieldManufacturerName: {},
	FieldCost: {}, FieldPrice: {},
	FieldOrderNumber: {}, FieldOrderDate: {}, FieldRecipientName: {}, FieldRecipientPhone: {},
	FieldPostalCode: {}, FieldQuantity: {}, FieldDeliveryMemo: {},
}

// IsKnownField reports whether f belongs to the canonical set.
func IsKnownField(f Field) bool {
	_, ok := knownFields[f]
	return ok
}

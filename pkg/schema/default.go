package schema

import "github.com/cercalo-ai/cercalo-engine/pkg/models"

// Default returns the built-in business catalog used when no catalog file
// is configured. Non-queryable fields are derived values that must never
// appear in a generated filter.
func Default() *Catalog {
	c, err := New(defaultEntities(), defaultCategories())
	if err != nil {
		// The built-in catalog is static; a construction error is a bug.
		panic(err)
	}
	return c
}

func defaultEntities() []models.EntityDescriptor {
	return []models.EntityDescriptor{
		{
			Name:  "partners",
			Label: "Partners / Contacts",
			Table: "partners",
			Fields: []models.FieldDescriptor{
				{Name: "name", Type: models.FieldTypeText, Label: "Name", Queryable: true},
				{Name: "email", Type: models.FieldTypeText, Label: "Email", Queryable: true},
				{Name: "city", Type: models.FieldTypeText, Label: "City", Queryable: true},
				{Name: "country", Type: models.FieldTypeText, Label: "Country", Queryable: true},
				{Name: "active", Type: models.FieldTypeBoolean, Label: "Active", Queryable: true},
				{Name: "customer_rank", Type: models.FieldTypeNumber, Label: "Customer Rank", Queryable: true},
				{Name: "supplier_rank", Type: models.FieldTypeNumber, Label: "Supplier Rank", Queryable: true},
				{Name: "total_invoiced", Type: models.FieldTypeNumber, Label: "Total Invoiced", Queryable: false},
			},
		},
		{
			Name:  "invoices",
			Label: "Invoices and Bills",
			Table: "invoices",
			Fields: []models.FieldDescriptor{
				{Name: "name", Type: models.FieldTypeText, Label: "Number", Queryable: true},
				{Name: "partner_id", Type: models.FieldTypeRelation, Label: "Partner", Queryable: true, RefEntity: "partners"},
				{Name: "state", Type: models.FieldTypeText, Label: "Status", Queryable: true},
				{Name: "payment_state", Type: models.FieldTypeText, Label: "Payment Status", Queryable: true},
				{Name: "invoice_date", Type: models.FieldTypeDate, Label: "Invoice Date", Queryable: true},
				{Name: "amount_total", Type: models.FieldTypeNumber, Label: "Total", Queryable: true},
				{Name: "amount_overdue", Type: models.FieldTypeNumber, Label: "Overdue Amount", Queryable: false},
			},
		},
		{
			Name:  "products",
			Label: "Products",
			Table: "products",
			Fields: []models.FieldDescriptor{
				{Name: "name", Type: models.FieldTypeText, Label: "Name", Queryable: true},
				{Name: "default_code", Type: models.FieldTypeText, Label: "Internal Reference", Queryable: true},
				{Name: "barcode", Type: models.FieldTypeText, Label: "Barcode", Queryable: true},
				{Name: "list_price", Type: models.FieldTypeNumber, Label: "Selling Price", Queryable: true},
				{Name: "standard_price", Type: models.FieldTypeNumber, Label: "Internal Cost", Queryable: true},
				{Name: "active", Type: models.FieldTypeBoolean, Label: "Active", Queryable: true},
				{Name: "category", Type: models.FieldTypeText, Label: "Category", Queryable: true},
				{Name: "qty_available", Type: models.FieldTypeNumber, Label: "Quantity On Hand", Queryable: false},
			},
		},
		{
			Name:  "orders",
			Label: "Sales Orders",
			Table: "orders",
			Fields: []models.FieldDescriptor{
				{Name: "name", Type: models.FieldTypeText, Label: "Reference", Queryable: true},
				{Name: "partner_id", Type: models.FieldTypeRelation, Label: "Customer", Queryable: true, RefEntity: "partners"},
				{Name: "product_id", Type: models.FieldTypeRelation, Label: "Product", Queryable: true, RefEntity: "products"},
				{Name: "state", Type: models.FieldTypeText, Label: "Status", Queryable: true},
				{Name: "date_order", Type: models.FieldTypeDate, Label: "Order Date", Queryable: true},
				{Name: "amount_total", Type: models.FieldTypeNumber, Label: "Total", Queryable: true},
			},
		},
	}
}

func defaultCategories() map[string]string {
	return map[string]string{
		"customers": "partners",
		"suppliers": "partners",
		"partners":  "partners",
		"contacts":  "partners",
		"clienti":   "partners",
		"invoices":  "invoices",
		"bills":     "invoices",
		"documents": "invoices",
		"fatture":   "invoices",
		"products":  "products",
		"articles":  "products",
		"prodotti":  "products",
		"orders":    "orders",
		"sales":     "orders",
		"ordini":    "orders",
	}
}

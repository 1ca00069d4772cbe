package importer

import (
	"net/http"

	"OrderOps/api"
	"OrderOps/internal/store"
)

// ListManufacturers handles GET /manufacturers.
func ListManufacturers(st store.ManufacturerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := st.ListManufacturers(r.Context())
		if err != nil {
			msg, status := api.UserFriendlyError(err, "list manufacturers")
			api.RespondWithError(w, status, msg)
			return
		}
		if out == nil {
			out = []store.Manufacturer{}
		}
		api.RespondWithPayload(w, true, "", out)
	}
}

// ListProducts handles GET /products.
func ListProducts(st store.ProductStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := st.ListProducts(r.Context())
		if err != nil {
			msg, status := api.UserFriendlyError(err, "list products")
			api.RespondWithError(w, status, msg)
			return
		}
		if out == nil {
			out = []store.Product{}
		}
		api.RespondWithPayload(w, true, "", out)
	}
}

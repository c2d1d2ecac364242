package httpx

import (
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	Engine     *inventory.Engine
	Warehouses *inventory.Warehouses
	Log        *zap.Logger
}

type stockResp struct {
	InStock bool   `json:"inStock"`
	Message string `json:"message,omitempty"`
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.restock)
		r.Post("/reserve", h.reserve)
		r.Post("/compensate", h.compensate)
		r.Get("/stock", h.stock)
		r.Get("/check", h.check)
		r.Get("/low-stock", h.lowStock)
		r.Post("/deduct", h.deduct)

		r.Route("/products/{skuCode}", func(r chi.Router) {
			r.Post("/", h.ensureProduct)
			r.Put("/quantity", h.addQuantity)
			r.Delete("/", h.removeProduct)
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Get("/", h.listWarehouses)
			r.Post("/", h.createWarehouse)
			r.Get("/{id}", h.getWarehouse)
			r.Put("/{id}", h.updateWarehouse)
			r.Delete("/{id}", h.deleteWarehouse)
		})
	})
}

// reserve: 200 kalau semua item terpenuhi, 409 kalau ditolak (stok kurang /
// SKU tidak ada), 500 kalau storage gagal.
func (h *InventoryHandler) reserve(w http.ResponseWriter, r *http.Request) {
	var items []inventory.Item
	if err := decodeJSON(r, &items); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ok, err := h.Engine.Reserve(r.Context(), items)
	if err == nil {
		writeJSON(w, http.StatusOK, stockResp{InStock: ok})
		return
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		writeError(w, r, h.Log, err)
	case apperr.KindOutOfStock, apperr.KindNotFound:
		e, _ := apperr.As(err)
		writeJSON(w, http.StatusConflict, stockResp{InStock: false, Message: e.Message})
	default:
		h.Log.Error("reserve failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, stockResp{InStock: false})
	}
}

func (h *InventoryHandler) compensate(w http.ResponseWriter, r *http.Request) {
	var items []inventory.Item
	if err := decodeJSON(r, &items); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ok, err := h.Engine.Compensate(r.Context(), items)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			writeError(w, r, h.Log, err)
			return
		}
		h.Log.Error("compensate failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, stockResp{InStock: false})
		return
	}
	writeJSON(w, http.StatusOK, stockResp{InStock: ok})
}

func (h *InventoryHandler) stock(w http.ResponseWriter, r *http.Request) {
	qty, err := intParam(r, "quantity", intp(1))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Engine.Query(r.Context(), r.URL.Query().Get("skuCode"), qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) check(w http.ResponseWriter, r *http.Request) {
	qty, err := intParam(r, "quantity", nil)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ok, err := h.Engine.CheckSingle(r.Context(), r.URL.Query().Get("skuCode"), qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResp{InStock: ok})
}

func (h *InventoryHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := intParam(r, "threshold", intp(h.Engine.LowStockThreshold))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	recs, err := h.Engine.LowStockItems(r.Context(), threshold)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Engine.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *InventoryHandler) restock(w http.ResponseWriter, r *http.Request) {
	var req inventory.RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Engine.Restock(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *InventoryHandler) deduct(w http.ResponseWriter, r *http.Request) {
	qty, err := intParam(r, "quantity", nil)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Engine.Deduct(r.Context(), r.URL.Query().Get("skuCode"), qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) ensureProduct(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.EnsureProduct(r.Context(), chi.URLParam(r, "skuCode"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) addQuantity(w http.ResponseWriter, r *http.Request) {
	qty, err := intParam(r, "quantity", nil)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Engine.AddToSingle(r.Context(), chi.URLParam(r, "skuCode"), qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) removeProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RemoveProduct(r.Context(), chi.URLParam(r, "skuCode")); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Warehouses.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *InventoryHandler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req inventory.WarehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	wh, err := h.Warehouses.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, wh)
}

func (h *InventoryHandler) getWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	wh, err := h.Warehouses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (h *InventoryHandler) updateWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req inventory.WarehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	wh, err := h.Warehouses.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (h *InventoryHandler) deleteWarehouse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Warehouses.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id must be a positive integer")
	}
	return id, nil
}
